package request

// LoginRequest 用户登录请求
// 使用位置:
//   - internal/handler/auth_handler.go: Login
//   - internal/service/user/user_service.go: Login
type LoginRequest struct {
	Telephone string `json:"telephone" binding:"required"`
	Password  string `json:"password" binding:"required"`
}
