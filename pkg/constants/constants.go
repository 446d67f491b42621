package constants

const (
	CHANNEL_SIZE               = 100 // 事件/推送通道缓冲大小
	REDIS_TIMEOUT              = 1   // redis 缓存过期时间（分钟）
	REFRESH_TOKEN_EXPIRY_HOURS = 168 // Refresh Token 有效期（小时），168小时 = 7天
)
