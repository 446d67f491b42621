package request

// RegisterRequest 用户注册请求
// 使用位置:
//   - internal/handler/auth_handler.go: Register
//   - internal/service/user/user_service.go: Register
type RegisterRequest struct {
	Telephone string `json:"telephone" binding:"required"`
	Password  string `json:"password" binding:"required,min=6"`
	Nickname  string `json:"nickname" binding:"required"`
}
