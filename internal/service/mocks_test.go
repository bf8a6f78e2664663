package service

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/model"
	"fintrack/internal/pubsub"
	"fintrack/internal/repository"
)

// In-memory fakes mirroring the repository semantics, including the
// conditional state transitions the SQL enforces.

type fakeUserRepo struct {
	users  map[string]*model.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}}
}

func (r *fakeUserRepo) CreateUser(_ context.Context, u *model.User) error {
	r.nextID++
	u.UserID = fmt.Sprintf("user-%d", r.nextID)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.users[u.UserID] = u
	return nil
}

func (r *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	return r.users[id], nil
}

func (r *fakeUserRepo) GetUserByTelegramID(_ context.Context, telegramID int64) (*model.User, error) {
	for _, u := range r.users {
		if u.TelegramID != nil && *u.TelegramID == telegramID {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetUserByGuestKey(_ context.Context, guestKey string) (*model.User, error) {
	for _, u := range r.users {
		if u.GuestKey != nil && *u.GuestKey == guestKey {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetUserByStripeCustomerID(_ context.Context, customerID string) (*model.User, error) {
	for _, u := range r.users {
		if u.StripeCustomerID != nil && *u.StripeCustomerID == customerID {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) UpdateStripeCustomerID(_ context.Context, userID, customerID string) error {
	u, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("user %s not found", userID)
	}
	u.StripeCustomerID = &customerID
	return nil
}

type fakeTransactionRepo struct {
	transactions map[string]*model.Transaction
	nextID       int
	createErr    error
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{transactions: map[string]*model.Transaction{}}
}

func (r *fakeTransactionRepo) CreateTransaction(_ context.Context, t *model.Transaction) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	t.TransactionID = fmt.Sprintf("tx-%d", r.nextID)
	t.CreatedAt = time.Now()
	stored := *t
	r.transactions[t.TransactionID] = &stored
	return nil
}

func (r *fakeTransactionRepo) GetTransactionByID(_ context.Context, id string) (*model.Transaction, error) {
	return r.transactions[id], nil
}

func (r *fakeTransactionRepo) ListTransactions(_ context.Context, userID string, limit, offset int) ([]model.Transaction, error) {
	out := []model.Transaction{}
	for _, t := range r.transactions {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTransactionRepo) DeleteTransaction(_ context.Context, id string) error {
	delete(r.transactions, id)
	return nil
}

type fakeDebtRepo struct {
	debts       map[string]*model.Debt
	payments    map[string]*model.DebtPayment
	nextDebt    int
	nextPayment int
}

func newFakeDebtRepo() *fakeDebtRepo {
	return &fakeDebtRepo{
		debts:    map[string]*model.Debt{},
		payments: map[string]*model.DebtPayment{},
	}
}

func (r *fakeDebtRepo) CreateDebt(_ context.Context, d *model.Debt) error {
	r.nextDebt++
	d.DebtID = fmt.Sprintf("debt-%d", r.nextDebt)
	d.RemainingCents = d.OriginalCents
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	stored := *d
	r.debts[d.DebtID] = &stored
	return nil
}

func (r *fakeDebtRepo) GetDebtByID(_ context.Context, id string) (*model.Debt, error) {
	d, ok := r.debts[id]
	if !ok {
		return nil, nil
	}
	copied := *d
	return &copied, nil
}

func (r *fakeDebtRepo) ListDebts(_ context.Context, userID string, status *model.DebtStatus) ([]model.Debt, error) {
	out := []model.Debt{}
	for _, d := range r.debts {
		if d.UserID != userID {
			continue
		}
		if status != nil && d.Status != *status {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (r *fakeDebtRepo) UpdateDebtDetails(_ context.Context, d *model.Debt) error {
	stored, ok := r.debts[d.DebtID]
	if !ok {
		return repository.ErrDebtNotFound
	}
	stored.PersonName = d.PersonName
	stored.Description = d.Description
	stored.DueDate = d.DueDate
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *fakeDebtRepo) CancelDebt(_ context.Context, id string) (*model.Debt, error) {
	d, ok := r.debts[id]
	if !ok {
		return nil, repository.ErrDebtNotFound
	}
	if d.Status != model.DebtActive {
		return nil, repository.ErrDebtNotActive
	}
	d.Status = model.DebtCancelled
	d.UpdatedAt = time.Now()
	copied := *d
	return &copied, nil
}

func (r *fakeDebtRepo) DeleteDebt(_ context.Context, id string) error {
	if _, ok := r.debts[id]; !ok {
		return repository.ErrDebtNotFound
	}
	delete(r.debts, id)
	return nil
}

func (r *fakeDebtRepo) CountActiveDebts(_ context.Context, userID string) (int, error) {
	count := 0
	for _, d := range r.debts {
		if d.UserID == userID && d.Status == model.DebtActive {
			count++
		}
	}
	return count, nil
}

func (r *fakeDebtRepo) SetOriginTransaction(_ context.Context, debtID, transactionID string) error {
	d, ok := r.debts[debtID]
	if !ok {
		return repository.ErrDebtNotFound
	}
	d.OriginTransactionID = &transactionID
	return nil
}

func (r *fakeDebtRepo) SummarizeActiveDebts(_ context.Context, userID string) (*model.DebtSummary, error) {
	var s model.DebtSummary
	for _, d := range r.debts {
		if d.UserID != userID || d.Status != model.DebtActive {
			continue
		}
		if d.Type == model.DebtIOwe {
			s.TotalIOweCents += d.RemainingCents
			s.IOweCount++
		} else {
			s.TotalOwedToMeCents += d.RemainingCents
			s.OwedToMeCount++
		}
	}
	s.NetBalanceCents = s.TotalOwedToMeCents - s.TotalIOweCents
	return &s, nil
}

func (r *fakeDebtRepo) ApplyPayment(_ context.Context, debtID string, amountCents int64, note string) (*model.Debt, *model.DebtPayment, error) {
	d, ok := r.debts[debtID]
	if !ok {
		return nil, nil, repository.ErrDebtNotFound
	}
	if d.Status != model.DebtActive {
		return nil, nil, repository.ErrDebtNotActive
	}
	if amountCents > d.RemainingCents {
		return nil, nil, repository.ErrPaymentExceedsRemaining
	}
	r.nextPayment++
	p := &model.DebtPayment{
		PaymentID:   fmt.Sprintf("pay-%d", r.nextPayment),
		DebtID:      debtID,
		AmountCents: amountCents,
		Note:        note,
		PaidAt:      time.Now(),
	}
	r.payments[p.PaymentID] = p

	d.RemainingCents -= amountCents
	if d.RemainingCents == 0 {
		d.Status = model.DebtPaid
	}
	d.UpdatedAt = time.Now()

	debtCopy := *d
	paymentCopy := *p
	return &debtCopy, &paymentCopy, nil
}

func (r *fakeDebtRepo) GetPaymentByID(_ context.Context, paymentID string) (*model.DebtPayment, error) {
	p, ok := r.payments[paymentID]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (r *fakeDebtRepo) ListPayments(_ context.Context, debtID string) ([]model.DebtPayment, error) {
	out := []model.DebtPayment{}
	for _, p := range r.payments {
		if p.DebtID == debtID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeDebtRepo) RevertPayment(_ context.Context, paymentID string) (*model.Debt, *model.DebtPayment, error) {
	p, ok := r.payments[paymentID]
	if !ok {
		return nil, nil, repository.ErrPaymentNotFound
	}
	d, ok := r.debts[p.DebtID]
	if !ok {
		return nil, nil, repository.ErrDebtNotFound
	}
	delete(r.payments, paymentID)
	d.RemainingCents += p.AmountCents
	d.Status = model.DebtActive
	d.UpdatedAt = time.Now()

	debtCopy := *d
	paymentCopy := *p
	return &debtCopy, &paymentCopy, nil
}

type periodKey struct {
	userID string
	start  time.Time
}

type fakeUsageRepo struct {
	periods map[periodKey]*model.UsagePeriod
}

func newFakeUsageRepo() *fakeUsageRepo {
	return &fakeUsageRepo{periods: map[periodKey]*model.UsagePeriod{}}
}

func (r *fakeUsageRepo) EnsurePeriod(_ context.Context, userID string, periodStart, periodEnd time.Time) (*model.UsagePeriod, error) {
	key := periodKey{userID, periodStart}
	if u, ok := r.periods[key]; ok {
		copied := *u
		return &copied, nil
	}
	u := &model.UsagePeriod{
		UserID:      userID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	r.periods[key] = u
	copied := *u
	return &copied, nil
}

func (r *fakeUsageRepo) GetPeriod(_ context.Context, userID string, periodStart time.Time) (*model.UsagePeriod, error) {
	u, ok := r.periods[periodKey{userID, periodStart}]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUsageRepo) AddToCounter(_ context.Context, userID string, periodStart time.Time, limitType model.LimitType, delta int) error {
	u, ok := r.periods[periodKey{userID, periodStart}]
	if !ok {
		return nil
	}
	apply := func(v int) int {
		v += delta
		if v < 0 {
			v = 0
		}
		return v
	}
	switch limitType {
	case model.LimitTransactions:
		u.TransactionsCount = apply(u.TransactionsCount)
	case model.LimitVoiceInputs:
		u.VoiceInputsCount = apply(u.VoiceInputsCount)
	case model.LimitDebts:
		u.ActiveDebtsCount = apply(u.ActiveDebtsCount)
	default:
		return fmt.Errorf("unknown limit type %q", limitType)
	}
	return nil
}

func (r *fakeUsageRepo) SetActiveDebts(_ context.Context, userID string, periodStart time.Time, count int) error {
	u, ok := r.periods[periodKey{userID, periodStart}]
	if !ok {
		return nil
	}
	if count < 0 {
		count = 0
	}
	u.ActiveDebtsCount = count
	return nil
}

type fakeSubscriptionRepo struct {
	subs map[string]*model.Subscription
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{subs: map[string]*model.Subscription{}}
}

func (r *fakeSubscriptionRepo) GetSubscription(_ context.Context, userID string) (*model.Subscription, error) {
	s, ok := r.subs[userID]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (r *fakeSubscriptionRepo) CreateSubscription(_ context.Context, s *model.Subscription) error {
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	stored := *s
	r.subs[s.UserID] = &stored
	return nil
}

func (r *fakeSubscriptionRepo) UpdateSubscription(_ context.Context, s *model.Subscription) error {
	if _, ok := r.subs[s.UserID]; !ok {
		return fmt.Errorf("subscription for user %s not found", s.UserID)
	}
	s.UpdatedAt = time.Now()
	stored := *s
	r.subs[s.UserID] = &stored
	return nil
}

type fakeParser struct {
	items []ParsedItem
	err   error
}

func (p *fakeParser) ParseText(_ context.Context, _, _ string) ([]ParsedItem, error) {
	return p.items, p.err
}

func (p *fakeParser) ParseVoice(_ context.Context, _, _ string) ([]ParsedItem, error) {
	return p.items, p.err
}

type fakePublisher struct {
	events []pubsub.Event
}

func (p *fakePublisher) PublishEvent(_ context.Context, _ string, event pubsub.Event) (string, error) {
	p.events = append(p.events, event)
	return fmt.Sprintf("msg-%d", len(p.events)), nil
}
