package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openapi "github.com/alibabacloud-go/darabonba-openapi/v2/client"
	dysmsapi "github.com/alibabacloud-go/dysmsapi-20170525/v5/client"
	"github.com/alibabacloud-go/tea/tea"

	"go-unimessage/internal/domain"
	"go-unimessage/internal/errs"
)

// AliyunSMSAdapter 阿里云短信。
// 渠道配置：accessKeyId、accessKeySecret、signName、regionId（可选）。
// 阿里云侧用模板的第三方模板Code发送，内容由阿里云侧渲染，参数原样透传。
type AliyunSMSAdapter struct {
	client   *dysmsapi.Client
	signName string
}

func NewAliyunSMSAdapter(channel domain.Channel) (Adapter, error) {
	accessKeyID := channel.Config.Str("accessKeyId")
	accessKeySecret := channel.Config.Str("accessKeySecret")
	signName := channel.Config.Str("signName")
	if accessKeyID == "" || accessKeySecret == "" || signName == "" {
		return nil, fmt.Errorf("%w: 缺少 accessKeyId/accessKeySecret/signName", errs.ErrInvalidParameter)
	}
	regionID := channel.Config.Str("regionId")
	if regionID == "" {
		regionID = "cn-hangzhou"
	}
	config := &openapi.Config{
		AccessKeyId:     tea.String(accessKeyID),
		AccessKeySecret: tea.String(accessKeySecret),
		RegionId:        tea.String(regionID),
		Endpoint:        tea.String("dysmsapi.aliyuncs.com"),
	}
	client, err := dysmsapi.NewClient(config)
	if err != nil {
		return nil, err
	}
	return &AliyunSMSAdapter{client: client, signName: signName}, nil
}

func (a *AliyunSMSAdapter) Send(_ context.Context, msg domain.ChannelMessage) (domain.ProviderResult, error) {
	// https://help.aliyun.com/zh/sms/developer-reference/api-dysmsapi-2017-05-25-sendsms
	request := &dysmsapi.SendSmsRequest{
		PhoneNumbers: tea.String(msg.Target),
		SignName:     tea.String(a.signName),
		TemplateCode: tea.String(msg.TemplateID),
	}
	if len(msg.Params) > 0 {
		param, err := json.Marshal(msg.Params)
		if err != nil {
			return domain.ProviderResult{}, err
		}
		request.TemplateParam = tea.String(string(param))
	}

	response, err := a.client.SendSms(request)
	if err != nil {
		return domain.ProviderResult{}, fmt.Errorf("%w: %w", errs.ErrUnreachable, err)
	}
	if response.Body == nil || response.Body.Code == nil {
		return domain.ProviderResult{}, fmt.Errorf("%w: 响应异常", errs.ErrProviderRejected)
	}
	if !strings.EqualFold(*response.Body.Code, "OK") {
		return domain.ProviderResult{}, fmt.Errorf("%w: %s %s",
			errs.ErrProviderRejected, *response.Body.Code, tea.StringValue(response.Body.Message))
	}
	return domain.ProviderResult{MsgID: tea.StringValue(response.Body.BizId)}, nil
}
