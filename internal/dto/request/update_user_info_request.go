package request

// UpdateUserInfoRequest 更新用户信息请求
// 使用位置:
//   - internal/handler/user_handler.go: UpdateUserInfo
type UpdateUserInfoRequest struct {
	Nickname  string `json:"nickname"`
	Avatar    string `json:"avatar"`
	Signature string `json:"signature"`
	Email     string `json:"email"`
}
