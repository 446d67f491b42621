package respond

// LoginRespond 登录/注册响应
// 使用位置:
//   - internal/service/user/user_service.go: Login, Register
type LoginRespond struct {
	Uuid         string `json:"uuid"`
	Nickname     string `json:"nickname"`
	Avatar       string `json:"avatar"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
