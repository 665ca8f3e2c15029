package service

import (
	"context"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"hihitutor/internal/model/auth"
	"hihitutor/internal/model/profile"
	"hihitutor/internal/model/tutorcase"
	uploadModel "hihitutor/internal/model/upload"
	"hihitutor/internal/pkg/id"
	"hihitutor/internal/pkg/notify"
	"hihitutor/internal/pkg/storage/local"
	"hihitutor/internal/pkg/verification"
	authRepo "hihitutor/internal/repository/auth"
	profileRepo "hihitutor/internal/repository/profile"
)

// 内存实现，行为与 Mongo 仓库一致（包括唯一索引）

func cloneUser(u *auth.User) *auth.User {
	cp := *u
	cp.Tags = slices.Clone(u.Tags)
	cp.TutorCertificates = slices.Clone(u.TutorCertificates)
	if u.OrganizationDocs != nil {
		docs := *u.OrganizationDocs
		cp.OrganizationDocs = &docs
	}
	return &cp
}

type fakeUsers struct {
	mu       sync.Mutex
	items    map[string]*auth.User
	counters map[string]int64
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{items: map[string]*auth.User{}, counters: map[string]int64{}}
}

// conflict 模拟 active 邮箱/电话与 user_code 唯一索引
func (f *fakeUsers) conflict(u *auth.User) error {
	for _, o := range f.items {
		if o.ID == u.ID {
			continue
		}
		if u.Status == auth.UserStatusActive && o.Status == auth.UserStatusActive {
			if o.Email == u.Email {
				return authRepo.ErrDuplicateEmail
			}
			if u.Phone != "" && o.Phone == u.Phone {
				return authRepo.ErrDuplicatePhone
			}
		}
		if u.UserCode != "" && o.UserCode == u.UserCode {
			return authRepo.ErrDuplicateUserCode
		}
	}
	return nil
}

func (f *fakeUsers) Create(_ context.Context, u *auth.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.conflict(u); err != nil {
		return err
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	u.RefreshAge(now)
	f.items[u.ID] = cloneUser(u)
	return nil
}

func (f *fakeUsers) Replace(_ context.Context, u *auth.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[u.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	if err := f.conflict(u); err != nil {
		return err
	}
	u.UpdatedAt = time.Now()
	u.RefreshAge(u.UpdatedAt)
	f.items[u.ID] = cloneUser(u)
	return nil
}

func (f *fakeUsers) FindByID(_ context.Context, userID string) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.items[userID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return cloneUser(u), nil
}

func (f *fakeUsers) FindByIDs(_ context.Context, ids []string) ([]*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*auth.User
	for _, userID := range ids {
		if u, ok := f.items[userID]; ok {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (f *fakeUsers) find(match func(u *auth.User) bool) (*auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var found *auth.User
	for _, u := range f.items {
		if match(u) && (found == nil || u.UpdatedAt.After(found.UpdatedAt)) {
			found = u
		}
	}
	if found == nil {
		return nil, mongo.ErrNoDocuments
	}
	return cloneUser(found), nil
}

func (f *fakeUsers) FindActiveByEmail(_ context.Context, email string) (*auth.User, error) {
	return f.find(func(u *auth.User) bool { return u.Email == email && u.Status == auth.UserStatusActive })
}

func (f *fakeUsers) FindActiveByPhone(_ context.Context, phone string) (*auth.User, error) {
	return f.find(func(u *auth.User) bool { return u.Phone == phone && u.Status == auth.UserStatusActive })
}

func (f *fakeUsers) FindInactiveByEmail(_ context.Context, email string) (*auth.User, error) {
	return f.find(func(u *auth.User) bool { return u.Email == email && u.Status == auth.UserStatusInactive })
}

func (f *fakeUsers) UpdateLastLoginAt(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.items[userID]; ok {
		now := time.Now()
		u.LastLoginAt = &now
	}
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, userID)
	return nil
}

func (f *fakeUsers) List(_ context.Context, filter authRepo.UserFilter, page, pageSize int64) ([]*auth.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []*auth.User
	for _, u := range f.items {
		if filter.Matches(u) {
			matched = append(matched, cloneUser(u))
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := int64(len(matched))
	start := min((page-1)*pageSize, total)
	end := min(start+pageSize, total)
	return matched[start:end], total, nil
}

func (f *fakeUsers) NextCodeNumber(_ context.Context, prefix string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq := f.counters[prefix]
	for _, u := range f.items {
		if n, ok := auth.ParseCodeNumber(prefix, u.UserCode); ok && n > seq {
			seq = n
		}
	}
	seq++
	f.counters[prefix] = seq
	return seq, nil
}

func (f *fakeUsers) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

// put 直接写入，绕过唯一约束（构造历史数据）
func (f *fakeUsers) put(u *auth.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == "" {
		u.ID = id.New()
	}
	f.items[u.ID] = cloneUser(u)
}

type fakeTokens struct {
	mu    sync.Mutex
	items map[string]*auth.RefreshToken
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{items: map[string]*auth.RefreshToken{}}
}

func (f *fakeTokens) Create(_ context.Context, t *auth.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *t
	f.items[t.TokenHash] = &cp
	return nil
}

func (f *fakeTokens) FindByHash(_ context.Context, hash string) (*auth.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.items[hash]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTokens) DeleteByHash(_ context.Context, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, hash)
	return nil
}

func (f *fakeTokens) DeleteByUserID(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, t := range f.items {
		if t.UserID == userID {
			delete(f.items, k)
		}
	}
	return nil
}

type fakeProfiles struct {
	mu    sync.Mutex
	items map[string]*profile.UserProfile
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{items: map[string]*profile.UserProfile{}}
}

func cloneProfile(p *profile.UserProfile) *profile.UserProfile {
	cp := *p
	cp.LatestProfile = p.LatestProfile.Clone()
	cp.ApprovedProfile = p.ApprovedProfile.Clone()
	return &cp
}

func (f *fakeProfiles) FindByUserID(_ context.Context, userID string) (*profile.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[userID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return cloneProfile(p), nil
}

func (f *fakeProfiles) UpsertLatest(_ context.Context, userID string, snap *profile.Snapshot) (*profile.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	p, ok := f.items[userID]
	if !ok {
		p = &profile.UserProfile{ID: id.New(), UserID: userID, ProfileStatus: profile.StatusPending, CreatedAt: now}
		f.items[userID] = p
	}
	p.LatestProfile = snap.Clone()
	p.UpdatedAt = now
	return cloneProfile(p), nil
}

func (f *fakeProfiles) Approve(_ context.Context, userID string, snap *profile.Snapshot, reviewer string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[userID]
	if !ok || p.LatestProfile == nil || !p.LatestProfile.SubmittedAt.Equal(snap.SubmittedAt) {
		return profileRepo.ErrStaleSnapshot
	}
	now := time.Now()
	p.ApprovedProfile = snap.Clone()
	p.ProfileStatus = profile.StatusApproved
	p.RejectReason = ""
	p.ReviewedBy = reviewer
	p.ReviewedAt = &now
	p.UpdatedAt = now
	return nil
}

func (f *fakeProfiles) Reject(_ context.Context, userID, reason, reviewer string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[userID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	now := time.Now()
	p.ProfileStatus = profile.StatusRejected
	p.RejectReason = reason
	p.ReviewedBy = reviewer
	p.ReviewedAt = &now
	p.UpdatedAt = now
	return nil
}

func (f *fakeProfiles) List(_ context.Context) ([]*profile.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*profile.UserProfile
	for _, p := range f.items {
		out = append(out, cloneProfile(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (f *fakeProfiles) ListApproved(_ context.Context) ([]*profile.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*profile.UserProfile{}
	for _, p := range f.items {
		if p.ApprovedProfile != nil {
			out = append(out, cloneProfile(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReviewedAt.After(*out[j].ReviewedAt) })
	return out, nil
}

func (f *fakeProfiles) Unpublish(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[userID]
	if !ok {
		return nil
	}
	p.ApprovedProfile = nil
	p.ProfileStatus = profile.StatusPending
	p.RejectReason, p.ReviewedBy, p.ReviewedAt = "", "", nil
	p.UpdatedAt = time.Now()
	return nil
}

func (f *fakeProfiles) DeleteByUserID(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, userID)
	return nil
}

type fakeCases struct {
	mu    sync.Mutex
	items map[string]*tutorcase.Case
}

func newFakeCases() *fakeCases {
	return &fakeCases{items: map[string]*tutorcase.Case{}}
}

func cloneCase(c *tutorcase.Case) *tutorcase.Case {
	cp := *c
	cp.Subjects = slices.Clone(c.Subjects)
	return &cp
}

func (f *fakeCases) Create(_ context.Context, c *tutorcase.Case) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	f.items[c.ID] = cloneCase(c)
	return nil
}

func (f *fakeCases) FindByID(_ context.Context, caseID string) (*tutorcase.Case, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[caseID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return cloneCase(c), nil
}

func (f *fakeCases) Replace(_ context.Context, c *tutorcase.Case) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[c.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	c.UpdatedAt = time.Now()
	f.items[c.ID] = cloneCase(c)
	return nil
}

func (f *fakeCases) Delete(_ context.Context, caseID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[caseID]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(f.items, caseID)
	return nil
}

func (f *fakeCases) List(_ context.Context, filter tutorcase.Filter, s tutorcase.Sort) ([]*tutorcase.Case, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*tutorcase.Case{}
	for _, c := range f.items {
		if filter.Matches(c) {
			out = append(out, cloneCase(c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return s.Less(out[i], out[j]) })
	if filter.Limit > 0 && int64(len(out)) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeCases) DeleteByOwner(_ context.Context, ownerID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for caseID, c := range f.items {
		if c.CreatedBy == ownerID {
			delete(f.items, caseID)
			n++
		}
	}
	return n, nil
}

func (f *fakeCases) put(c *tutorcase.Case) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[c.ID] = cloneCase(c)
}

func (f *fakeCases) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

type fakeFiles struct {
	mu    sync.Mutex
	items map[string]*uploadModel.File
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{items: map[string]*uploadModel.File{}}
}

func (f *fakeFiles) Create(_ context.Context, file *uploadModel.File) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	file.CreatedAt = time.Now()
	cp := *file
	f.items[file.StorageKey] = &cp
	return nil
}

func (f *fakeFiles) FindByKey(_ context.Context, key string) (*uploadModel.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.items[key]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *file
	return &cp, nil
}

func (f *fakeFiles) DeleteByKey(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, key)
	return nil
}

func (f *fakeFiles) SetOwner(_ context.Context, keys []string, ownerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		if file, ok := f.items[k]; ok {
			file.OwnerID = ownerID
		}
	}
	return nil
}

func (f *fakeFiles) ListByOwner(_ context.Context, ownerID string) ([]*uploadModel.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*uploadModel.File
	for _, file := range f.items {
		if file.OwnerID == ownerID {
			cp := *file
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeFiles) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

// fakeTx 直接执行；before 在事务体之前调用，用于模拟并发提交
type fakeTx struct {
	calls  int
	before func(ctx context.Context)
}

func (t *fakeTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	if t.before != nil {
		t.before(ctx)
	}
	return fn(ctx)
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (m *fakeMailer) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) Subjects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, msg := range m.sent {
		out = append(out, msg.Subject)
	}
	return out
}

type fakeSMS struct {
	mu   sync.Mutex
	sent map[string]string
}

func (s *fakeSMS) SendSMS(_ context.Context, phone, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sent == nil {
		s.sent = map[string]string{}
	}
	s.sent[phone] = text
	return nil
}

// 测试文件内容，按文件头识别类型
var (
	pngData  = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)
	pdfData  = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")
	textData = []byte("just some plain text, not a document")
)

type testEnv struct {
	users    *fakeUsers
	tokens   *fakeTokens
	profiles *fakeProfiles
	cases    *fakeCases
	files    *fakeFiles
	store    *verification.MemoryStore
	mailer   *fakeMailer
	sms      *fakeSMS
	tx       *fakeTx

	uploads   *UploadService
	auth      *AuthService
	verify    *VerificationService
	user      *UserService
	profile   *ProfileService
	tutorCase *CaseService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := local.NewLocalStorage(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatal(err)
	}

	env := &testEnv{
		users:    newFakeUsers(),
		tokens:   newFakeTokens(),
		profiles: newFakeProfiles(),
		cases:    newFakeCases(),
		files:    newFakeFiles(),
		store:    verification.NewMemoryStore(verification.Options{}),
		mailer:   &fakeMailer{},
		sms:      &fakeSMS{},
		tx:       &fakeTx{},
	}
	env.uploads = NewUploadService(env.files, st)
	env.auth = NewAuthService(env.users, env.tokens, env.uploads, env.store, env.mailer, AuthOptions{
		JWTSecret:          "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
	}, nil)
	env.verify = NewVerificationService(env.store, env.sms, nil, VerificationOptions{ExposeCode: true}, nil)
	env.user = NewUserService(env.users, env.profiles, env.cases, env.tokens, env.uploads)
	env.profile = NewProfileService(env.profiles, env.users, env.uploads, env.tx, env.mailer, ProfileOptions{}, nil)
	env.tutorCase = NewCaseService(env.cases, CaseOptions{MinRate: 50, MaxDescription: 300}, nil)
	return env
}

var adminActor = auth.NewActor(&auth.User{ID: "admin-1", Tags: []string{auth.TagAdmin}})

// registerIndividual 完成电话验证并注册个人用户
func (e *testEnv) registerIndividual(email, phone string) (*LoginResult, error) {
	if err := e.store.MarkVerified(context.Background(), phone); err != nil {
		return nil, err
	}
	return e.auth.Register(context.Background(), &RegisterInput{
		Name:     "陈大文",
		Email:    email,
		Phone:    phone,
		Password: "abcd1234",
		UserType: auth.UserTypeIndividual,
	})
}

func (e *testEnv) mustRegister(t *testing.T, email, phone string) *auth.User {
	t.Helper()
	res, err := e.registerIndividual(email, phone)
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return res.User
}
