// internal/config/constants.go
package config

import "time"

// アプリケーション情報
const (
	AppName    = "Manabi"
	AppVersion = "1.3.0"
)

// デフォルト設定値
const (
	DefaultServerPort     = ":8080"
	DefaultLogLevel       = "info"
	DefaultAccessTokenTTL = 24 * time.Hour

	// DefaultLessonXP はレッスン完了1回あたりの標準XP
	DefaultLessonXP = 10
	// DefaultQuizMaxXP はクイズ満点時に付与されるXP
	DefaultQuizMaxXP = 20
)
