package domain

// BatchStatus 批次状态: 0处理中 10全部成功 20部分成功 30全部失败
type BatchStatus int8

const (
	BatchStatusPending    BatchStatus = 0
	BatchStatusAllSuccess BatchStatus = 10
	BatchStatusPartial    BatchStatus = 20
	BatchStatusAllFailed  BatchStatus = 30
)

func (s BatchStatus) Terminal() bool {
	return s != BatchStatusPending
}

// DeriveBatchStatus 由 Detail 状态集合推导批次状态。
// status 是纯投影：任何 Detail 状态变更（含重试）之后重新推导，不做单向状态机。
func DeriveBatchStatus(total, success, fail int) BatchStatus {
	if success+fail < total {
		return BatchStatusPending
	}
	switch {
	case fail == 0:
		return BatchStatusAllSuccess
	case success == 0:
		return BatchStatusAllFailed
	default:
		return BatchStatusPartial
	}
}

// DetailStatus 详情状态: 10发送中 20发送成功 30发送失败
type DetailStatus int8

const (
	DetailStatusSending DetailStatus = 10
	DetailStatusSuccess DetailStatus = 20
	DetailStatusFailed  DetailStatus = 30
)

func (s DetailStatus) Terminal() bool {
	return s != DetailStatusSending
}

// Batch 一次发送请求的聚合记录
type Batch struct {
	ID            int64             `json:"id"`
	BatchNo       string            `json:"batchNo"` // 业务批次号
	AppID         int64             `json:"appId"`
	TemplateID    int64             `json:"templateId"`
	TemplateName  string            `json:"templateName"` // 模板名称快照
	ChannelID     int64             `json:"channelId"`
	ChannelName   string            `json:"channelName"` // 渠道名称快照
	ChannelType   ChannelType       `json:"channelType"`
	MsgType       MsgType           `json:"msgType"`
	Title         string            `json:"title"`
	Content       string            `json:"content"`       // 模板内容快照
	ContentParams map[string]string `json:"contentParams"` // 业务方传入的参数
	TotalCount    int               `json:"totalCount"`
	SuccessCount  int               `json:"successCount"`
	FailCount     int               `json:"failCount"`
	Status        BatchStatus       `json:"status"`
	Ctime         int64             `json:"ctime"`
}

// Detail 批次内单个接收者的投递记录
type Detail struct {
	ID              int64        `json:"id"`
	BatchID         int64        `json:"batchId"`
	Recipient       string       `json:"recipient"` // 解析后的实际地址
	RecipientName   string       `json:"recipientName"`
	Content         string       `json:"content"` // 渲染后的内容快照
	Status          DetailStatus `json:"status"`
	ThirdPartyMsgID string       `json:"thirdPartyMsgId"` // 第三方返回的消息ID
	ErrorMsg        string       `json:"errorMsg"`
	RetryCount      int          `json:"retryCount"`
	SendTime        int64        `json:"sendTime"` // 实际发送时间，毫秒时间戳
	Ctime           int64        `json:"ctime"`
}
