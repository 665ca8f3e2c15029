package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"hihitutor/internal/model/auth"
	"hihitutor/internal/model/tutorcase"
	"hihitutor/internal/pkg/apperr"
	"hihitutor/internal/pkg/id"
	"hihitutor/internal/pkg/metrics"
	"hihitutor/internal/pkg/mongodb"
	"hihitutor/internal/pkg/validate"
)

// caseForbiddenKeys 由服务端维护、不允许通过修改接口写入的字段
var caseForbiddenKeys = []string{"_id", "id", "createdBy", "createdAt", "updatedAt", "approved", "postType"}

// CaseOptions 个案服务配置
type CaseOptions struct {
	MinRate        float64
	MaxDescription int
}

// CaseService 补习个案
type CaseService struct {
	cases   CaseStore
	opts    CaseOptions
	metrics *metrics.Metrics
}

// NewCaseService 创建个案服务
func NewCaseService(cases CaseStore, opts CaseOptions, m *metrics.Metrics) *CaseService {
	if opts.MaxDescription <= 0 {
		opts.MaxDescription = 300
	}
	return &CaseService{cases: cases, opts: opts, metrics: m}
}

// CreateCaseInput 创建个案参数
// approved / status / createdBy 等字段由服务端设置，不在输入中
type CreateCaseInput struct {
	PostType    tutorcase.PostType `json:"postType" validate:"required,oneof=student-seeking-tutor tutor-seeking-student"`
	PostTitle   string             `json:"postTitle" validate:"notblank,max=100"`
	Location    string             `json:"location" validate:"notblank,max=100"`
	Category    string             `json:"category" validate:"notblank,max=50"`
	Subjects    []string           `json:"subjects" validate:"required,min=1,dive,notblank"`
	Rate        float64            `json:"rate" validate:"required"`
	Description string             `json:"description"`
}

// checkRate 时薪下限
func (s *CaseService) checkRate(rate float64) error {
	if rate < s.opts.MinRate {
		return ErrInvalidInput.WithFields(apperr.FieldError{
			Field:   "rate",
			Message: fmt.Sprintf("rate不能低于%g", s.opts.MinRate),
		})
	}
	return nil
}

// checkDescription 描述按字符计算长度
func (s *CaseService) checkDescription(desc string) error {
	if utf8.RuneCountInString(desc) > s.opts.MaxDescription {
		return ErrInvalidInput.WithFields(apperr.FieldError{
			Field:   "description",
			Message: fmt.Sprintf("description不能超过%d个字", s.opts.MaxDescription),
		})
	}
	return nil
}

func (s *CaseService) load(ctx context.Context, caseID string) (*tutorcase.Case, error) {
	c, err := s.cases.FindByID(ctx, caseID)
	if err != nil {
		if mongodb.IsNotFound(err) {
			return nil, ErrCaseNotFound
		}
		log.Error().Err(err).Str("case_id", caseID).Msg("failed to find case")
		return nil, apperr.Internal(err)
	}
	return c, nil
}

func (s *CaseService) save(ctx context.Context, c *tutorcase.Case) error {
	if err := s.cases.Replace(ctx, c); err != nil {
		if mongodb.IsNotFound(err) {
			return ErrCaseNotFound
		}
		log.Error().Err(err).Str("case_id", c.ID).Msg("failed to save case")
		return apperr.Internal(err)
	}
	return nil
}

// Create 创建个案，初始为未审核、开放中
func (s *CaseService) Create(ctx context.Context, actor *auth.Actor, in *CreateCaseInput) (*tutorcase.Case, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if err := s.checkRate(in.Rate); err != nil {
		return nil, err
	}
	if err := s.checkDescription(in.Description); err != nil {
		return nil, err
	}

	subjects := make([]string, 0, len(in.Subjects))
	for _, subj := range in.Subjects {
		subjects = append(subjects, strings.TrimSpace(subj))
	}

	c := &tutorcase.Case{
		ID:          id.New(),
		PostType:    in.PostType,
		PostTitle:   strings.TrimSpace(in.PostTitle),
		Location:    strings.TrimSpace(in.Location),
		Category:    strings.TrimSpace(in.Category),
		Subjects:    subjects,
		Rate:        in.Rate,
		Description: in.Description,
		Approved:    false,
		Status:      tutorcase.StatusOpen,
		CreatedBy:   actor.UserID,
	}
	if err := s.cases.Create(ctx, c); err != nil {
		log.Error().Err(err).Msg("failed to create case")
		return nil, apperr.Internal(err)
	}

	s.metrics.CaseTransition("create")
	return c, nil
}

// Approve 审核通过并重新开放；已拒绝的个案不能再审核
func (s *CaseService) Approve(ctx context.Context, actor *auth.Actor, caseID string) (*tutorcase.Case, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	c, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.Status == tutorcase.StatusRejected {
		return nil, ErrCaseRejected
	}

	c.Approved = true
	c.Status = tutorcase.StatusOpen
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	s.metrics.CaseTransition("approve")
	return c, nil
}

// Reject 拒绝，终态
func (s *CaseService) Reject(ctx context.Context, actor *auth.Actor, caseID string) (*tutorcase.Case, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	c, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}

	c.Approved = false
	c.Status = tutorcase.StatusRejected
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	s.metrics.CaseTransition("reject")
	return c, nil
}

// UpdateCaseInput 修改参数，nil 表示不修改
type UpdateCaseInput struct {
	PostTitle    *string           `json:"postTitle" validate:"omitempty,notblank,max=100"`
	Location     *string           `json:"location" validate:"omitempty,notblank,max=100"`
	Category     *string           `json:"category" validate:"omitempty,notblank,max=50"`
	Subjects     []string          `json:"subjects" validate:"omitempty,min=1,dive,notblank"`
	Rate         *float64          `json:"rate"`
	Description  *string           `json:"description"`
	Status       *tutorcase.Status `json:"status"`
	MatchedTutor *string           `json:"matchedTutor"`
}

// ParseCaseUpdate 解析修改内容，包含服务端字段时整体拒绝
func ParseCaseUpdate(raw []byte) (*UpdateCaseInput, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, ErrInvalidInput.WithCause(err)
	}
	var fields []apperr.FieldError
	for _, k := range caseForbiddenKeys {
		if _, ok := keys[k]; ok {
			fields = append(fields, apperr.FieldError{Field: k, Message: k + "不允许修改"})
		}
	}
	if len(fields) > 0 {
		return nil, ErrForbiddenField.WithFields(fields...)
	}

	var in UpdateCaseInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, ErrInvalidInput.WithCause(err)
	}
	return &in, nil
}

// checkTransition 状态只能按 开放中→配對中→待上課→已完成 向前推进（可跳过）
// 已拒绝只能通过 Reject；未审核的个案不能离开开放中
func checkTransition(c *tutorcase.Case, next tutorcase.Status) error {
	if !next.IsValid() {
		return ErrInvalidInput.WithFields(apperr.FieldError{Field: "status", Message: "status无效"})
	}
	if next == tutorcase.StatusRejected {
		return ErrUseRejectAction
	}
	if next.Rank() < c.Status.Rank() {
		return ErrStatusBackward
	}
	if next != tutorcase.StatusOpen && !c.Approved {
		return ErrCaseNotApproved
	}
	return nil
}

// GeneralUpdate 所有者或管理员修改个案
func (s *CaseService) GeneralUpdate(ctx context.Context, actor *auth.Actor, caseID string, in *UpdateCaseInput) (*tutorcase.Case, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	c, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(c.CreatedBy) {
		return nil, ErrForbidden
	}
	if c.Status == tutorcase.StatusRejected {
		return nil, ErrCaseRejected
	}

	if in.Rate != nil {
		if err := s.checkRate(*in.Rate); err != nil {
			return nil, err
		}
		c.Rate = *in.Rate
	}
	if in.Description != nil {
		if err := s.checkDescription(*in.Description); err != nil {
			return nil, err
		}
		c.Description = *in.Description
	}
	statusChanged := false
	if in.Status != nil && *in.Status != c.Status {
		if err := checkTransition(c, *in.Status); err != nil {
			return nil, err
		}
		c.Status = *in.Status
		statusChanged = true
	}

	if in.PostTitle != nil {
		c.PostTitle = strings.TrimSpace(*in.PostTitle)
	}
	if in.Location != nil {
		c.Location = strings.TrimSpace(*in.Location)
	}
	if in.Category != nil {
		c.Category = strings.TrimSpace(*in.Category)
	}
	if in.Subjects != nil {
		c.Subjects = in.Subjects
	}
	if in.MatchedTutor != nil {
		c.MatchedTutor = strings.TrimSpace(*in.MatchedTutor)
	}

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	if statusChanged {
		s.metrics.CaseTransition(string(c.Status))
	}
	return c, nil
}

// ListCasesInput 列表参数
type ListCasesInput struct {
	PostType tutorcase.PostType `form:"postType" validate:"omitempty,oneof=student-seeking-tutor tutor-seeking-student"`
	Sort     string             `form:"sort"`
	Limit    int64              `form:"limit" validate:"omitempty,min=1,max=200"`
}

func (s *CaseService) list(ctx context.Context, f tutorcase.Filter, in *ListCasesInput) ([]*tutorcase.Case, error) {
	if in == nil {
		in = &ListCasesInput{}
	}
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	f.PostType = in.PostType
	f.Limit = in.Limit

	cases, err := s.cases.List(ctx, f, tutorcase.ParseSort(in.Sort))
	if err != nil {
		log.Error().Err(err).Msg("failed to list cases")
		return nil, apperr.Internal(err)
	}
	return cases, nil
}

// PublicList 公开列表：已审核且状态为开放中或配對中，每次按条件查询
func (s *CaseService) PublicList(ctx context.Context, in *ListCasesInput) ([]*tutorcase.Case, error) {
	return s.list(ctx, tutorcase.PublicOnly(), in)
}

// List 登录用户可见的全部已审核个案
func (s *CaseService) List(ctx context.Context, in *ListCasesInput) ([]*tutorcase.Case, error) {
	approved := true
	return s.list(ctx, tutorcase.Filter{Approved: &approved}, in)
}

// OwnerList 自己创建的个案
func (s *CaseService) OwnerList(ctx context.Context, actor *auth.Actor, in *ListCasesInput) ([]*tutorcase.Case, error) {
	return s.list(ctx, tutorcase.Filter{CreatedBy: actor.UserID}, in)
}

// PendingList 待审核（未审核且未被拒绝），仅管理员
func (s *CaseService) PendingList(ctx context.Context, actor *auth.Actor, in *ListCasesInput) ([]*tutorcase.Case, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	approved := false
	return s.list(ctx, tutorcase.Filter{Approved: &approved, ExcludeStatus: tutorcase.StatusRejected}, in)
}

// Get 已审核的个案登录用户都可查看；未审核的只有所有者和管理员可见
func (s *CaseService) Get(ctx context.Context, actor *auth.Actor, caseID string) (*tutorcase.Case, error) {
	c, err := s.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !c.Approved && !actor.CanManage(c.CreatedBy) {
		return nil, ErrCaseNotFound
	}
	return c, nil
}

// Delete 所有者或管理员删除
func (s *CaseService) Delete(ctx context.Context, actor *auth.Actor, caseID string) error {
	c, err := s.load(ctx, caseID)
	if err != nil {
		return err
	}
	if !actor.CanManage(c.CreatedBy) {
		return ErrForbidden
	}
	if err := s.cases.Delete(ctx, caseID); err != nil {
		if mongodb.IsNotFound(err) {
			return ErrCaseNotFound
		}
		log.Error().Err(err).Str("case_id", caseID).Msg("failed to delete case")
		return apperr.Internal(err)
	}
	s.metrics.CaseTransition("delete")
	return nil
}
