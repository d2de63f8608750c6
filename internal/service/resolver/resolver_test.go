package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-unimessage/internal/domain"
	"go-unimessage/internal/errs"
	"go-unimessage/internal/pkg/logger"
)

type fakeRecipientRepo struct {
	recipients map[int64]domain.Recipient
	groups     map[int64][]int64
}

func (f *fakeRecipientRepo) GetByIDs(_ context.Context, ids []int64) ([]domain.Recipient, error) {
	var res []domain.Recipient
	for _, id := range ids {
		if r, ok := f.recipients[id]; ok {
			res = append(res, r)
		}
	}
	return res, nil
}

func (f *fakeRecipientRepo) GetByGroupID(_ context.Context, groupID int64) ([]domain.Recipient, error) {
	var res []domain.Recipient
	for _, id := range f.groups[groupID] {
		if r, ok := f.recipients[id]; ok {
			res = append(res, r)
		}
	}
	return res, nil
}

func newFakeRepo() *fakeRecipientRepo {
	return &fakeRecipientRepo{
		recipients: map[int64]domain.Recipient{
			1: {ID: 1, Name: "张三", Mobile: "13800000001", Email: "zhangsan@example.com", Status: domain.StatusEnabled},
			2: {ID: 2, Name: "李四", Mobile: "13800000002", Status: domain.StatusEnabled},
			3: {ID: 3, Name: "王五", Email: "wangwu@example.com", Status: domain.StatusEnabled},
			4: {ID: 4, Name: "已禁用", Mobile: "13800000004", Status: domain.StatusDisabled},
			5: {ID: 5, Name: "小飞", UserIDs: map[string]string{"FEISHU": "ou_feishu_5"}, Status: domain.StatusEnabled},
		},
		groups: map[int64][]int64{
			100: {1, 2},
			101: {2, 3, 4},
		},
	}
}

func TestResolver_ManualRecipients(t *testing.T) {
	t.Parallel()
	r := NewResolver(newFakeRepo(), logger.NewNopLogger())

	resolved, skipped, err := r.Resolve(context.Background(), domain.Template{
		RecipientGroupIDs: []int64{100}, // 手动指定时默认接收者被忽略
	}, domain.ChannelSMS, []string{"13911111111", "13922222222", "13911111111"})
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	// 重复地址只保留首次出现
	require.Len(t, resolved, 2)
	assert.Equal(t, "13911111111", resolved[0].Address)
	assert.Equal(t, "13922222222", resolved[1].Address)
	assert.Zero(t, resolved[0].RecipientID)
}

func TestResolver_DefaultRecipients(t *testing.T) {
	t.Parallel()
	r := NewResolver(newFakeRepo(), logger.NewNopLogger())

	testCases := []struct {
		name        string
		tmpl        domain.Template
		typ         domain.ChannelType
		wantAddrs   []string
		wantSkipped int
		wantErr     error
	}{
		{
			name: "分组优先_单个接收者补充_首次出现为准",
			tmpl: domain.Template{
				RecipientGroupIDs: []int64{100, 101},
				RecipientIDs:      []int64{3, 1},
			},
			typ: domain.ChannelSMS,
			// 组100: 1,2 组101: 2(重复),3(无手机号),4(禁用) 单个: 3(重复),1(重复)
			wantAddrs:   []string{"13800000001", "13800000002"},
			wantSkipped: 2,
		},
		{
			name: "邮件渠道取邮箱",
			tmpl: domain.Template{
				RecipientIDs: []int64{1, 2, 3},
			},
			typ: domain.ChannelEmail,
			// 2 没有邮箱，被跳过
			wantAddrs:   []string{"zhangsan@example.com", "wangwu@example.com"},
			wantSkipped: 1,
		},
		{
			name: "IM渠道取外部用户ID_无则回退手机号",
			tmpl: domain.Template{
				RecipientIDs: []int64{5, 2},
			},
			typ:         domain.ChannelFeishu,
			wantAddrs:   []string{"ou_feishu_5", "13800000002"},
			wantSkipped: 0,
		},
		{
			name: "全部不可用则报错",
			tmpl: domain.Template{
				Code:         "TPL_X",
				RecipientIDs: []int64{3, 4},
			},
			typ:     domain.ChannelSMS,
			wantErr: errs.ErrNoValidRecipient,
		},
		{
			name:    "模板未配置默认接收者",
			tmpl:    domain.Template{Code: "TPL_EMPTY"},
			typ:     domain.ChannelSMS,
			wantErr: errs.ErrNoValidRecipient,
		},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			resolved, skipped, err := r.Resolve(context.Background(), tc.tmpl, tc.typ, nil)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantSkipped, skipped)
			addrs := make([]string, 0, len(resolved))
			for _, rr := range resolved {
				addrs = append(addrs, rr.Address)
			}
			assert.Equal(t, tc.wantAddrs, addrs)
		})
	}
}
