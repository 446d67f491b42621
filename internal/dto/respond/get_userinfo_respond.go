package respond

// GetUserInfoRespond 获取用户信息响应
// 使用位置:
//   - internal/service/user/user_service.go: GetUserInfo
type GetUserInfoRespond struct {
	Uuid      string `json:"uuid"`
	Nickname  string `json:"nickname"`
	Telephone string `json:"telephone"`
	Avatar    string `json:"avatar"`
	Email     string `json:"email"`
	Signature string `json:"signature"`
	CreatedAt string `json:"created_at"`
	Online    bool   `json:"online"`
}
