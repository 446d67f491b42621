package respond

// UserStatusRespond user_status_changed 事件负载
// 使用位置:
//   - internal/service/chat/ws_gateway.go: onConnect, onDisconnect
type UserStatusRespond struct {
	UserId string `json:"user_id"`
	Online bool   `json:"online"`
}
