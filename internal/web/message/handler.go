package message

import (
	"errors"
	"strconv"

	"github.com/ecodeclub/ekit/slice"
	"github.com/gin-gonic/gin"

	"go-unimessage/internal/domain"
	"go-unimessage/internal/errs"
	"go-unimessage/internal/pkg/ginx"
	"go-unimessage/internal/repository"
	"go-unimessage/internal/service/dispatch"
	"go-unimessage/internal/service/msglog"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

var _ ginx.Handler = &Handler{}

type Handler struct {
	dispatchSvc dispatch.Service
	logSvc      msglog.Service
}

func NewHandler(dispatchSvc dispatch.Service, logSvc msglog.Service) *Handler {
	return &Handler{dispatchSvc: dispatchSvc, logSvc: logSvc}
}

func (h *Handler) PrivateRoutes(_ *gin.Engine) {
}

func (h *Handler) PublicRoutes(server *gin.Engine) {
	api := server.Group("/api/v1")
	api.POST("/message/send", ginx.B[SendReq](h.Send))

	batch := api.Group("/log/batch")
	batch.GET("/page", ginx.B[BatchPageReq](h.PageBatches))
	batch.GET("/statistics", ginx.B[StatisticsReq](h.Statistics))
	batch.GET("/batchNo/:batchNo", ginx.W(h.GetBatchByNo))
	batch.GET("/id/:id", ginx.W(h.GetBatch))

	detail := api.Group("/log/detail")
	detail.GET("/page", ginx.B[DetailPageReq](h.PageDetails))
	detail.POST("/:id/retry", ginx.W(h.RetryDetail))
}

func (h *Handler) Send(ctx *gin.Context, req SendReq) (ginx.Result, error) {
	resp, err := h.dispatchSvc.Send(ctx.Request.Context(), domain.SendRequest{
		TemplateCode: req.TemplateCode,
		Recipients:   req.Recipients,
		Params:       req.Params,
		BizID:        req.BizID,
		AppID:        req.AppID,
	})
	if err != nil {
		return errorResult(err), err
	}
	return ginx.Result{
		Data: SendResp{
			BatchNo:      resp.BatchNo,
			TotalCount:   resp.TotalCount,
			SkippedCount: resp.SkippedCount,
		},
	}, nil
}

func (h *Handler) PageBatches(ctx *gin.Context, req BatchPageReq) (ginx.Result, error) {
	offset, limit := pagination(req.PageNum, req.PageSize)
	var status *domain.BatchStatus
	if req.Status != nil {
		s := domain.BatchStatus(*req.Status)
		status = &s
	}
	batches, total, err := h.logSvc.PageBatches(ctx.Request.Context(), repository.BatchQuery{
		AppID:     req.AppID,
		ChannelID: req.ChannelID,
		Status:    status,
		BatchNo:   req.BatchNo,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Offset:    offset,
		Limit:     limit,
	})
	if err != nil {
		return systemErrorResult, err
	}
	return ginx.Result{
		Data: PageResp[BatchVO]{
			Total: total,
			List: slice.Map(batches, func(_ int, src domain.Batch) BatchVO {
				return toBatchVO(src)
			}),
		},
	}, nil
}

func (h *Handler) Statistics(ctx *gin.Context, req StatisticsReq) (ginx.Result, error) {
	stats, err := h.logSvc.Statistics(ctx.Request.Context(), req.AppID, req.StartTime, req.EndTime)
	if err != nil {
		return systemErrorResult, err
	}
	return ginx.Result{Data: toStatisticsVO(stats)}, nil
}

func (h *Handler) GetBatch(ctx *gin.Context) (ginx.Result, error) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		return errorResult(errs.ErrInvalidParameter), errs.ErrInvalidParameter
	}
	batch, err := h.logSvc.GetBatch(ctx.Request.Context(), id)
	if err != nil {
		return errorResult(err), err
	}
	return ginx.Result{Data: toBatchVO(batch)}, nil
}

func (h *Handler) GetBatchByNo(ctx *gin.Context) (ginx.Result, error) {
	batch, err := h.logSvc.GetBatchByNo(ctx.Request.Context(), ctx.Param("batchNo"))
	if err != nil {
		return errorResult(err), err
	}
	return ginx.Result{Data: toBatchVO(batch)}, nil
}

func (h *Handler) PageDetails(ctx *gin.Context, req DetailPageReq) (ginx.Result, error) {
	offset, limit := pagination(req.PageNum, req.PageSize)
	var status *domain.DetailStatus
	if req.Status != nil {
		s := domain.DetailStatus(*req.Status)
		status = &s
	}
	details, total, err := h.logSvc.PageDetails(ctx.Request.Context(), repository.DetailQuery{
		BatchID:   req.BatchID,
		Recipient: req.Recipient,
		Status:    status,
		Offset:    offset,
		Limit:     limit,
	})
	if err != nil {
		return systemErrorResult, err
	}
	return ginx.Result{
		Data: PageResp[DetailVO]{
			Total: total,
			List: slice.Map(details, func(_ int, src domain.Detail) DetailVO {
				return toDetailVO(src)
			}),
		},
	}, nil
}

func (h *Handler) RetryDetail(ctx *gin.Context) (ginx.Result, error) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		return errorResult(errs.ErrInvalidParameter), errs.ErrInvalidParameter
	}
	if err := h.dispatchSvc.Retry(ctx.Request.Context(), id); err != nil {
		return errorResult(err), err
	}
	return ginx.Result{Msg: "OK"}, nil
}

func pagination(pageNum, pageSize int) (offset, limit int) {
	if pageNum < 1 {
		pageNum = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return (pageNum - 1) * pageSize, pageSize
}

// errorResult 业务错误映射到响应码，未识别的错误统一按系统错误返回
func errorResult(err error) ginx.Result {
	switch {
	case errors.Is(err, errs.ErrInvalidParameter),
		errors.Is(err, errs.ErrNoValidRecipient):
		return ginx.Result{Code: invalidParamCode, Msg: err.Error()}
	case errors.Is(err, errs.ErrDuplicateRequest):
		return ginx.Result{Code: duplicateCode, Msg: errs.ErrDuplicateRequest.Error()}
	case errors.Is(err, errs.ErrInvalidState):
		return ginx.Result{Code: invalidStateCode, Msg: err.Error()}
	case errors.Is(err, errs.ErrTemplateNotFound),
		errors.Is(err, errs.ErrChannelNotFound),
		errors.Is(err, errs.ErrAppNotFound),
		errors.Is(err, errs.ErrBatchNotFound),
		errors.Is(err, errs.ErrDetailNotFound):
		return ginx.Result{Code: notFoundCode, Msg: err.Error()}
	case errors.Is(err, errs.ErrTemplateDisabled),
		errors.Is(err, errs.ErrChannelDisabled),
		errors.Is(err, errs.ErrAppDisabled):
		return ginx.Result{Code: invalidStateCode, Msg: err.Error()}
	default:
		return systemErrorResult
	}
}
