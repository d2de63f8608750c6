package message

import (
	"go-unimessage/internal/domain"
	"go-unimessage/internal/repository"
)

type SendReq struct {
	TemplateCode string            `json:"templateCode" binding:"required"`
	Recipients   []string          `json:"recipients"`
	Params       map[string]string `json:"params"`
	BizID        string            `json:"bizId"`
	AppID        int64             `json:"appId"`
}

type SendResp struct {
	BatchNo      string `json:"batchNo"`
	TotalCount   int    `json:"totalCount"`
	SkippedCount int    `json:"skippedCount"`
}

type BatchPageReq struct {
	PageNum   int    `form:"pageNum"`
	PageSize  int    `form:"pageSize"`
	AppID     int64  `form:"appId"`
	ChannelID int64  `form:"channelId"`
	Status    *int8  `form:"status"`
	BatchNo   string `form:"batchNo"`
	StartTime int64  `form:"startTime"`
	EndTime   int64  `form:"endTime"`
}

type DetailPageReq struct {
	PageNum   int    `form:"pageNum"`
	PageSize  int    `form:"pageSize"`
	BatchID   int64  `form:"batchId"`
	Recipient string `form:"recipient"`
	Status    *int8  `form:"status"`
}

type StatisticsReq struct {
	AppID     int64 `form:"appId"`
	StartTime int64 `form:"startTime"`
	EndTime   int64 `form:"endTime"`
}

type PageResp[T any] struct {
	Total int64 `json:"total"`
	List  []T   `json:"list"`
}

type BatchVO struct {
	ID           int64  `json:"id,string"`
	BatchNo      string `json:"batchNo"`
	AppID        int64  `json:"appId"`
	TemplateID   int64  `json:"templateId"`
	TemplateName string `json:"templateName"`
	ChannelID    int64  `json:"channelId"`
	ChannelName  string `json:"channelName"`
	ChannelType  string `json:"channelType"`
	MsgType      int8   `json:"msgType"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	TotalCount   int    `json:"totalCount"`
	SuccessCount int    `json:"successCount"`
	FailCount    int    `json:"failCount"`
	Status       int8   `json:"status"`
	Ctime        int64  `json:"ctime"`
}

type DetailVO struct {
	ID              int64  `json:"id,string"`
	BatchID         int64  `json:"batchId,string"`
	Recipient       string `json:"recipient"`
	RecipientName   string `json:"recipientName"`
	Content         string `json:"content"`
	Status          int8   `json:"status"`
	ThirdPartyMsgID string `json:"thirdPartyMsgId"`
	ErrorMsg        string `json:"errorMsg"`
	RetryCount      int    `json:"retryCount"`
	SendTime        int64  `json:"sendTime"`
	Ctime           int64  `json:"ctime"`
}

type StatisticsVO struct {
	TotalCount   int64 `json:"totalCount"`
	SuccessCount int64 `json:"successCount"`
	FailCount    int64 `json:"failCount"`
}

func toBatchVO(src domain.Batch) BatchVO {
	return BatchVO{
		ID:           src.ID,
		BatchNo:      src.BatchNo,
		AppID:        src.AppID,
		TemplateID:   src.TemplateID,
		TemplateName: src.TemplateName,
		ChannelID:    src.ChannelID,
		ChannelName:  src.ChannelName,
		ChannelType:  src.ChannelType.String(),
		MsgType:      int8(src.MsgType),
		Title:        src.Title,
		Content:      src.Content,
		TotalCount:   src.TotalCount,
		SuccessCount: src.SuccessCount,
		FailCount:    src.FailCount,
		Status:       int8(src.Status),
		Ctime:        src.Ctime,
	}
}

func toDetailVO(src domain.Detail) DetailVO {
	return DetailVO{
		ID:              src.ID,
		BatchID:         src.BatchID,
		Recipient:       src.Recipient,
		RecipientName:   src.RecipientName,
		Content:         src.Content,
		Status:          int8(src.Status),
		ThirdPartyMsgID: src.ThirdPartyMsgID,
		ErrorMsg:        src.ErrorMsg,
		RetryCount:      src.RetryCount,
		SendTime:        src.SendTime,
		Ctime:           src.Ctime,
	}
}

func toStatisticsVO(src repository.Statistics) StatisticsVO {
	return StatisticsVO{
		TotalCount:   src.TotalCount,
		SuccessCount: src.SuccessCount,
		FailCount:    src.FailCount,
	}
}
