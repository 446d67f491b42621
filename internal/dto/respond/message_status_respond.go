package respond

// MessageStatusRespond 单条消息对单个接收者的回执状态
// 使用位置:
//   - internal/service/receipt/tracker.go: GetStatus
type MessageStatusRespond struct {
	MessageId   int64  `json:"message_id,string"`
	RecipientId string `json:"recipient_id"`
	Delivered   bool   `json:"delivered"`
	DeliveredAt string `json:"delivered_at"`
	Read        bool   `json:"read"`
	ReadAt      string `json:"read_at"`
}
