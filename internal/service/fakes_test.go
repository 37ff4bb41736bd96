package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"skillenergy/internal/model"
	"skillenergy/internal/repository"
)

var errBoom = errors.New("boom")

// tickingClock returns a clock that advances one second per call, so every stored
// object gets a distinct key.
func tickingClock(start time.Time) Clock {
	var mu sync.Mutex
	now := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func fixedClock(t *time.Time) Clock {
	return func() time.Time { return *t }
}

type idSeq struct {
	mu sync.Mutex
	n  int
}

func (s *idSeq) next(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%d", prefix, s.n)
}

// fakeCourses implements the lookups services need. Unused methods panic through the nil interface.
type fakeCourses struct {
	repository.CourseRepository
	mu        sync.Mutex
	ids       idSeq
	courses   map[string]*model.Course
	summaries []model.CourseSummary
	lastQuery model.CourseFilter
	buyers    map[string][]string
}

func newFakeCourses(ids ...string) *fakeCourses {
	f := &fakeCourses{courses: map[string]*model.Course{}}
	for _, id := range ids {
		f.courses[id] = &model.Course{ID: id, Title: "Course " + id}
	}
	return f
}

func (f *fakeCourses) Create(_ context.Context, c *model.Course) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.courses {
		if existing.Title == c.Title {
			return repository.ErrDuplicate
		}
	}
	c.ID = f.ids.next("course")
	cp := *c
	f.courses[c.ID] = &cp
	return nil
}

func (f *fakeCourses) GetByID(_ context.Context, id string) (*model.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.courses[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCourses) GetByTitle(_ context.Context, title string) (*model.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.courses {
		if c.Title == title {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeCourses) HasPurchaser(_ context.Context, courseID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Contains(f.buyers[courseID], userID), nil
}

func (f *fakeCourses) Summaries(_ context.Context, q model.CourseFilter) ([]model.CourseSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = q
	return slices.Clone(f.summaries), nil
}

// fakeSections keeps rows in a map and emulates the group-locked transaction with a
// mutex plus snapshot restore on error.
type fakeSections struct {
	mu        sync.Mutex
	ids       idSeq
	rows      map[string]*model.Section
	locked    [][]model.SectionGroupKey
	insertErr error

	// onLock runs before each transaction, standing in for a writer that got there first.
	onLock func(rows map[string]*model.Section)
}

func newFakeSections() *fakeSections {
	return &fakeSections{rows: map[string]*model.Section{}}
}

func (f *fakeSections) GetByID(_ context.Context, id string) (*model.Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.get(id), nil
}

func (f *fakeSections) get(id string) *model.Section {
	r, ok := f.rows[id]
	if !ok {
		return nil
	}
	cp := *r
	return &cp
}

func (f *fakeSections) ListByCourse(_ context.Context, courseID string) ([]model.Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Section{}
	for _, r := range f.rows {
		if r.CourseID == courseID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeSections) WithGroupLock(_ context.Context, keys []model.SectionGroupKey, fn func(tx repository.SectionTx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locked = append(f.locked, model.SortGroupKeys(keys))
	if f.onLock != nil {
		f.onLock(f.rows)
	}

	snapshot := make(map[string]*model.Section, len(f.rows))
	for id, r := range f.rows {
		cp := *r
		snapshot[id] = &cp
	}
	if err := fn(&fakeSectionTx{f: f}); err != nil {
		f.rows = snapshot
		return err
	}
	return nil
}

// row returns the stored row for tests to inspect.
func (f *fakeSections) row(id string) *model.Section {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.get(id)
}

// groupTotals returns the distinct total_time values stored in a group.
func (f *fakeSections) groupTotals(key model.SectionGroupKey) []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[int]bool{}
	for _, r := range f.rows {
		if r.Group() == key {
			seen[r.TotalTime] = true
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

type fakeSectionTx struct {
	f *fakeSections
}

func (tx *fakeSectionTx) GetByID(_ context.Context, id string) (*model.Section, error) {
	return tx.f.get(id), nil
}

func (tx *fakeSectionTx) FindConflicts(_ context.Context, key model.SectionGroupKey, videoNo int, title, excludeID string) (bool, bool, error) {
	var number, named bool
	for id, r := range tx.f.rows {
		if id == excludeID || r.Group() != key {
			continue
		}
		number = number || r.VideoNo == videoNo
		named = named || r.VideoTitle == title
	}
	return number, named, nil
}

func (tx *fakeSectionTx) Insert(_ context.Context, s *model.Section) error {
	if tx.f.insertErr != nil {
		return tx.f.insertErr
	}
	s.ID = tx.f.ids.next("section")
	cp := *s
	tx.f.rows[s.ID] = &cp
	return nil
}

func (tx *fakeSectionTx) Update(_ context.Context, s *model.Section) error {
	if _, ok := tx.f.rows[s.ID]; !ok {
		return fmt.Errorf("update section %s: no rows", s.ID)
	}
	s.UpdatedAt = s.UpdatedAt.Add(time.Second)
	cp := *s
	tx.f.rows[s.ID] = &cp
	return nil
}

func (tx *fakeSectionTx) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := tx.f.rows[id]; !ok {
		return false, nil
	}
	delete(tx.f.rows, id)
	return true, nil
}

func (tx *fakeSectionTx) RecomputeTotal(_ context.Context, key model.SectionGroupKey) (int, error) {
	total := 0
	for _, r := range tx.f.rows {
		if r.Group() == key {
			total += r.VideoTime
		}
	}
	for _, r := range tx.f.rows {
		if r.Group() == key {
			r.TotalTime = total
		}
	}
	return total, nil
}

type fakeUsers struct {
	mu    sync.Mutex
	ids   idSeq
	users map[string]*model.User
}

func newFakeUsers(users ...*model.User) *fakeUsers {
	f := &fakeUsers{users: map[string]*model.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) user(id string) *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	u.ID = f.ids.next("user")
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	return f.user(id), nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) List(_ context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.User{}
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUsers) update(id string, fn func(u *model.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return fmt.Errorf("user %s: no rows", id)
	}
	fn(u)
	return nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, u *model.User) error {
	return f.update(u.ID, func(stored *model.User) { *stored = *u })
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id, hash string) error {
	return f.update(id, func(u *model.User) { u.PasswordHash = hash })
}

func (f *fakeUsers) SetOTP(_ context.Context, id, otp string, expires time.Time) error {
	return f.update(id, func(u *model.User) {
		u.ResetOTP, u.OTPExpires, u.OTPVerified = otp, &expires, false
	})
}

func (f *fakeUsers) MarkOTPVerified(_ context.Context, id string) error {
	return f.update(id, func(u *model.User) { u.OTPVerified = true })
}

func (f *fakeUsers) ResetPassword(_ context.Context, id, hash string) error {
	return f.update(id, func(u *model.User) {
		u.PasswordHash, u.ResetOTP, u.OTPExpires, u.OTPVerified = hash, "", nil, false
	})
}

func (f *fakeUsers) Delete(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return false, nil
	}
	delete(f.users, id)
	return true, nil
}

type fakePlans struct {
	mu    sync.Mutex
	ids   idSeq
	plans map[string]*model.PremiumPlan
}

func newFakePlans(plans ...*model.PremiumPlan) *fakePlans {
	f := &fakePlans{plans: map[string]*model.PremiumPlan{}}
	for _, p := range plans {
		f.plans[p.ID] = p
	}
	return f
}

func (f *fakePlans) Create(_ context.Context, p *model.PremiumPlan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = f.ids.next("plan")
	cp := *p
	f.plans[p.ID] = &cp
	return nil
}

func (f *fakePlans) GetByID(_ context.Context, id string) (*model.PremiumPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.plans[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakePlans) List(_ context.Context) ([]model.PremiumPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.PremiumPlan{}
	for _, p := range f.plans {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakePlans) Update(_ context.Context, p *model.PremiumPlan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.plans[p.ID] = &cp
	return nil
}

func (f *fakePlans) Delete(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.plans[id]; !ok {
		return false, nil
	}
	delete(f.plans, id)
	return true, nil
}

// fakePayments runs the purchase callback against fakeUsers and fakePlans under one lock.
type fakePayments struct {
	mu       sync.Mutex
	ids      idSeq
	users    *fakeUsers
	plans    *fakePlans
	payments map[string]*model.Payment
}

func newFakePayments(users *fakeUsers, plans *fakePlans) *fakePayments {
	return &fakePayments{users: users, plans: plans, payments: map[string]*model.Payment{}}
}

func (f *fakePayments) Purchase(ctx context.Context, userID, planID string, decide repository.PurchaseFunc) (*model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user := f.users.user(userID)
	plan, _ := f.plans.GetByID(ctx, planID)
	p, err := decide(user, plan)
	if err != nil {
		return nil, err
	}
	p.ID = f.ids.next("payment")
	p.CreatedAt = time.Now()
	cp := *p
	f.payments[p.ID] = &cp
	endDate, bought := p.EndDate, p.PlanID
	err = f.users.update(userID, func(u *model.User) {
		u.PlanID, u.EndDate, u.IsSubscribed = &bought, &endDate, true
	})
	return p, err
}

func (f *fakePayments) GetByID(_ context.Context, id string) (*model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakePayments) List(_ context.Context) ([]model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Payment{}
	for _, p := range f.payments {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakePayments) UpdateBillingAddress(_ context.Context, id string, billingAddressID *string) (*model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok {
		return nil, nil
	}
	p.BillingAddressID = billingAddressID
	cp := *p
	return &cp, nil
}

func (f *fakePayments) Delete(_ context.Context, id string) (*model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok {
		return nil, nil
	}
	delete(f.payments, id)
	err := f.users.update(p.UserID, func(u *model.User) {
		u.PlanID, u.EndDate, u.IsSubscribed = nil, nil, false
	})
	return p, err
}

type published struct {
	topic   string
	payload []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	err  error
	sent []published
}

func (p *fakePublisher) Publish(_ context.Context, topic string, payload []byte) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.sent = append(p.sent, published{topic: topic, payload: payload})
	return fmt.Sprintf("msg-%d", len(p.sent)), nil
}

func (p *fakePublisher) messages() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.sent)
}

// fakeList is a cart or wishlist keyed by user.
type fakeList struct {
	mu    sync.Mutex
	items map[string][]string
}

func newFakeList() *fakeList {
	return &fakeList{items: map[string][]string{}}
}

func (f *fakeList) Add(_ context.Context, userID, courseID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if slices.Contains(f.items[userID], courseID) {
		return false, nil
	}
	f.items[userID] = append(f.items[userID], courseID)
	return true, nil
}

func (f *fakeList) Items(_ context.Context, userID string) ([]model.ListItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.ListItem{}
	for _, id := range f.items[userID] {
		out = append(out, model.ListItem{CourseID: id})
	}
	return out, nil
}

func (f *fakeList) Remove(_ context.Context, userID, courseID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := slices.Index(f.items[userID], courseID)
	if i < 0 {
		return false, nil
	}
	f.items[userID] = slices.Delete(f.items[userID], i, i+1)
	return true, nil
}

func (f *fakeList) Clear(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, userID)
	return nil
}

func (f *fakeList) CourseIDs(_ context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.items[userID]), nil
}

type fakeRatings struct {
	repository.RatingRepository
	mu      sync.Mutex
	ids     idSeq
	ratings map[string]*model.Rating
}

func newFakeRatings() *fakeRatings {
	return &fakeRatings{ratings: map[string]*model.Rating{}}
}

func (f *fakeRatings) Create(_ context.Context, rt *model.Rating) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.ratings {
		if r.UserID == rt.UserID && r.CourseID == rt.CourseID {
			return repository.ErrDuplicate
		}
	}
	rt.ID = f.ids.next("rating")
	cp := *rt
	f.ratings[rt.ID] = &cp
	return nil
}

func (f *fakeRatings) GetByID(_ context.Context, id string) (*model.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.ratings[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRatings) ListByCourse(_ context.Context, courseID string) ([]model.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Rating{}
	for _, r := range f.ratings {
		if r.CourseID == courseID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRatings) Update(_ context.Context, rt *model.Rating) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *rt
	f.ratings[rt.ID] = &cp
	return nil
}

func (f *fakeRatings) Delete(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.ratings[id]; !ok {
		return false, nil
	}
	delete(f.ratings, id)
	return true, nil
}

type fakeBilling struct {
	repository.BillingRepository
	mu        sync.Mutex
	ids       idSeq
	addresses map[string]*model.BillingAddress
}

func newFakeBilling() *fakeBilling {
	return &fakeBilling{addresses: map[string]*model.BillingAddress{}}
}

func (f *fakeBilling) Create(_ context.Context, b *model.BillingAddress) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b.ID = f.ids.next("billing")
	cp := *b
	f.addresses[b.ID] = &cp
	return nil
}

func (f *fakeBilling) GetByID(_ context.Context, id string) (*model.BillingAddress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.addresses[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBilling) GetByUser(_ context.Context, userID string) (*model.BillingAddress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.addresses {
		if b.UserID == userID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeBilling) Update(_ context.Context, b *model.BillingAddress) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *b
	f.addresses[b.ID] = &cp
	return nil
}

type fakeCategories struct {
	repository.CategoryRepository
	ids map[string]bool
}

func (f *fakeCategories) GetByID(_ context.Context, id string) (*model.CourseCategory, error) {
	if !f.ids[id] {
		return nil, nil
	}
	return &model.CourseCategory{ID: id, Name: "Category " + id}, nil
}

type fakeLanguages struct {
	repository.LanguageRepository
	mu        sync.Mutex
	ids       idSeq
	languages map[string]*model.Language
}

func newFakeLanguages() *fakeLanguages {
	return &fakeLanguages{languages: map[string]*model.Language{}}
}

func (f *fakeLanguages) Create(_ context.Context, l *model.Language) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l.ID = f.ids.next("language")
	cp := *l
	f.languages[l.ID] = &cp
	return nil
}

func (f *fakeLanguages) GetByID(_ context.Context, id string) (*model.Language, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.languages[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (f *fakeLanguages) GetByName(_ context.Context, name string) (*model.Language, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.languages {
		if l.Name == name {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeLanguages) Update(_ context.Context, l *model.Language) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *l
	f.languages[l.ID] = &cp
	return nil
}

type fakeStats struct {
	counts  map[string]int64
	revenue float64
	err     error
}

func (f *fakeStats) Count(_ context.Context, table string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.counts[table], nil
}

func (f *fakeStats) Revenue(_ context.Context) (float64, error) {
	return f.revenue, nil
}

type fakeMentors struct {
	repository.MentorRepository
	top      []model.MentorRank
	topLimit int
}

func (f *fakeMentors) Top(_ context.Context, limit int) ([]model.MentorRank, error) {
	f.topLimit = limit
	return f.top, nil
}

type fakeReasons struct {
	repository.DeletionReasonRepository
	users   *fakeUsers
	ids     idSeq
	reasons []model.DeletionReason
}

func (f *fakeReasons) CreateAndDeleteUser(ctx context.Context, d *model.DeletionReason) error {
	d.ID = f.ids.next("reason")
	if _, err := f.users.Delete(ctx, *d.UserID); err != nil {
		return err
	}
	d.UserID = nil
	f.reasons = append(f.reasons, *d)
	return nil
}
