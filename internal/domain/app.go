package domain

// App 调用方应用，凭证管理由控制台负责，引擎只读
type App struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	AppKey    string `json:"appKey"`
	AppSecret string `json:"appSecret"`
	Status    int8   `json:"status"`
	Ctime     int64  `json:"ctime"`
	Utime     int64  `json:"utime"`
}

func (a App) Enabled() bool {
	return a.Status == StatusEnabled
}
