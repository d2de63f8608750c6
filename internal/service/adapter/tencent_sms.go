package adapter

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	sms "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/sms/v20210111"

	"go-unimessage/internal/domain"
	"go-unimessage/internal/errs"
)

// TencentSMSAdapter 腾讯云短信。
// 渠道配置：secretId、secretKey、sdkAppId、signName、region（可选）。
// 腾讯模板占位符是 {1}{2} 这样的序号，参数按 "1","2",... 的键序展开。
type TencentSMSAdapter struct {
	client   *sms.Client
	sdkAppID string
	signName string
}

func NewTencentSMSAdapter(channel domain.Channel) (Adapter, error) {
	secretID := channel.Config.Str("secretId")
	secretKey := channel.Config.Str("secretKey")
	sdkAppID := channel.Config.Str("sdkAppId")
	signName := channel.Config.Str("signName")
	if secretID == "" || secretKey == "" || sdkAppID == "" || signName == "" {
		return nil, fmt.Errorf("%w: 缺少 secretId/secretKey/sdkAppId/signName", errs.ErrInvalidParameter)
	}
	region := channel.Config.Str("region")
	if region == "" {
		region = "ap-guangzhou"
	}
	client, err := sms.NewClient(common.NewCredential(secretID, secretKey), region, profile.NewClientProfile())
	if err != nil {
		return nil, err
	}
	return &TencentSMSAdapter{client: client, sdkAppID: sdkAppID, signName: signName}, nil
}

func (t *TencentSMSAdapter) Send(_ context.Context, msg domain.ChannelMessage) (domain.ProviderResult, error) {
	// https://cloud.tencent.com/document/api/382/55981
	request := sms.NewSendSmsRequest()
	phone := msg.Target
	if !strings.HasPrefix(phone, "+") {
		phone = "+86" + phone
	}
	request.PhoneNumberSet = []*string{&phone}
	request.SmsSdkAppId = &t.sdkAppID
	request.SignName = &t.signName
	request.TemplateId = &msg.TemplateID

	if params := positionalParams(msg.Params); len(params) > 0 {
		paramPtrs := make([]*string, len(params))
		for i := range params {
			paramPtrs[i] = &params[i]
		}
		request.TemplateParamSet = paramPtrs
	}

	response, err := t.client.SendSms(request)
	if err != nil {
		return domain.ProviderResult{}, fmt.Errorf("%w: %w", errs.ErrUnreachable, err)
	}
	if len(response.Response.SendStatusSet) == 0 {
		return domain.ProviderResult{}, fmt.Errorf("%w: 没有返回发送状态", errs.ErrProviderRejected)
	}
	status := response.Response.SendStatusSet[0]
	if status.Code == nil || !strings.EqualFold(*status.Code, "Ok") {
		return domain.ProviderResult{}, fmt.Errorf("%w: %s %s",
			errs.ErrProviderRejected, strValue(status.Code), strValue(status.Message))
	}
	return domain.ProviderResult{MsgID: strValue(status.SerialNo)}, nil
}

// positionalParams 把 "1","2",... 为键的参数按序号排序展开，非数字键忽略
func positionalParams(params map[string]string) []string {
	type kv struct {
		idx int
		val string
	}
	pairs := make([]kv, 0, len(params))
	for k, v := range params {
		idx, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		pairs = append(pairs, kv{idx: idx, val: v})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].idx < pairs[j].idx })
	res := make([]string, 0, len(pairs))
	for _, p := range pairs {
		res = append(res, p.val)
	}
	return res
}

func strValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
