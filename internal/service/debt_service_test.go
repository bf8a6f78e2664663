package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/model"

	"github.com/rs/zerolog"
)

type debtTestEnv struct {
	userRepo  *fakeUserRepo
	debtRepo  *fakeDebtRepo
	txRepo    *fakeTransactionRepo
	usageRepo *fakeUsageRepo
	subRepo   *fakeSubscriptionRepo
	usage     *usageService
	debts     DebtService
	userID    string
}

func newDebtTestEnv(t *testing.T) *debtTestEnv {
	t.Helper()
	env := &debtTestEnv{
		userRepo:  newFakeUserRepo(),
		debtRepo:  newFakeDebtRepo(),
		txRepo:    newFakeTransactionRepo(),
		usageRepo: newFakeUsageRepo(),
		subRepo:   newFakeSubscriptionRepo(),
	}

	u := &model.User{Name: "Test User"}
	if err := env.userRepo.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	env.userID = u.UserID

	env.usage = NewUsageService(env.usageRepo, env.subRepo, zerolog.Nop()).(*usageService)
	env.usage.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }

	identity := NewIdentityService(env.userRepo, zerolog.Nop())
	txSvc := NewTransactionService(env.txRepo, env.usage, nil, "", zerolog.Nop())
	env.debts = NewDebtService(env.debtRepo, identity, env.usage, txSvc, zerolog.Nop())
	return env
}

func (env *debtTestEnv) ref() model.UserRef {
	return model.CanonicalRef(env.userID)
}

// linkedTransactions returns the debt-related transactions recorded for a debt.
func (env *debtTestEnv) linkedTransactions(debtID string) []model.Transaction {
	out := []model.Transaction{}
	for _, tx := range env.txRepo.transactions {
		if tx.RelatedDebtID != nil && *tx.RelatedDebtID == debtID {
			out = append(out, *tx)
		}
	}
	return out
}

func TestCreateDebtWithMoneyTransferred(t *testing.T) {
	env := newDebtTestEnv(t)
	ctx := context.Background()

	d, err := env.debts.Create(ctx, CreateDebtInput{
		Ref:              env.ref(),
		Type:             model.DebtIOwe,
		PersonName:       "Alice",
		AmountCents:      10000,
		MoneyTransferred: true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if d.Status != model.DebtActive || d.RemainingCents != 10000 {
		t.Errorf("debt = status %q remaining %d, want active 10000", d.Status, d.RemainingCents)
	}
	if d.Currency != "USD" {
		t.Errorf("Currency = %q, want USD default", d.Currency)
	}

	// Receiving a loan is income.
	linked := env.linkedTransactions(d.DebtID)
	if len(linked) != 1 {
		t.Fatalf("linked transactions = %d, want 1", len(linked))
	}
	tx := linked[0]
	if tx.Type != model.TransactionIncome {
		t.Errorf("linked tx type = %q, want income", tx.Type)
	}
	if tx.AmountCents != 10000 || !tx.IsDebtRelated {
		t.Errorf("linked tx = %+v", tx)
	}
	if d.OriginTransactionID == nil || *d.OriginTransactionID != tx.TransactionID {
		t.Errorf("OriginTransactionID = %v, want %q", d.OriginTransactionID, tx.TransactionID)
	}
}

func TestCreateDebtWithoutMoneyTransferred(t *testing.T) {
	env := newDebtTestEnv(t)

	d, err := env.debts.Create(context.Background(), CreateDebtInput{
		Ref:         env.ref(),
		Type:        model.DebtOwedToMe,
		PersonName:  "Bob",
		AmountCents: 5000,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(env.linkedTransactions(d.DebtID)) != 0 {
		t.Error("recording a pre-existing obligation must not create a transaction")
	}
	if d.OriginTransactionID != nil {
		t.Errorf("OriginTransactionID = %v, want nil", d.OriginTransactionID)
	}
}

func TestCreateDebtLendingIsExpense(t *testing.T) {
	env := newDebtTestEnv(t)

	d, err := env.debts.Create(context.Background(), CreateDebtInput{
		Ref:              env.ref(),
		Type:             model.DebtOwedToMe,
		PersonName:       "Bob",
		AmountCents:      5000,
		MoneyTransferred: true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	linked := env.linkedTransactions(d.DebtID)
	if len(linked) != 1 || linked[0].Type != model.TransactionExpense {
		t.Fatalf("lending money out should record an expense, got %+v", linked)
	}
}

func TestCreateDebtValidation(t *testing.T) {
	env := newDebtTestEnv(t)
	ctx := context.Background()

	cases := []CreateDebtInput{
		{Ref: env.ref(), Type: model.DebtIOwe, PersonName: "", AmountCents: 100},
		{Ref: env.ref(), Type: model.DebtIOwe, PersonName: "  ", AmountCents: 100},
		{Ref: env.ref(), Type: model.DebtIOwe, PersonName: "Alice", AmountCents: 0},
		{Ref: env.ref(), Type: model.DebtIOwe, PersonName: "Alice", AmountCents: -100},
		{Ref: env.ref(), Type: model.DebtType("maybe"), PersonName: "Alice", AmountCents: 100},
	}
	for i, input := range cases {
		_, err := env.debts.Create(ctx, input)
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("case %d: expected ValidationError, got %v", i, err)
		}
	}
	if len(env.debtRepo.debts) != 0 {
		t.Error("rejected creations must not persist debts")
	}
}

func TestActiveDebtLimit(t *testing.T) {
	env := newDebtTestEnv(t)
	ctx := context.Background()

	for i := 0; i < FreeActiveDebts; i++ {
		_, err := env.debts.Create(ctx, CreateDebtInput{
			Ref: env.ref(), Type: model.DebtIOwe, PersonName: "Alice", AmountCents: 1000,
		})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	_, err := env.debts.Create(ctx, CreateDebtInput{
		Ref: env.ref(), Type: model.DebtIOwe, PersonName: "Alice", AmountCents: 1000,
	})
	var limitErr *LimitExceededError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected LimitExceededError, got %v", err)
	}
	if limitErr.Limit != FreeActiveDebts || limitErr.CurrentUsage != FreeActiveDebts {
		t.Errorf("limit error = %d/%d, want %d/%d", limitErr.CurrentUsage, limitErr.Limit, FreeActiveDebts, FreeActiveDebts)
	}
	if len(env.debtRepo.debts) != FreeActiveDebts {
		t.Errorf("debts persisted = %d, want %d", len(env.debtRepo.debts), FreeActiveDebts)
	}
}

func TestClosedDebtsFreeUpSlots(t *testing.T) {
	env := newDebtTestEnv(t)
	ctx := context.Background()

	ids := make([]string, 0, FreeActiveDebts)
	for i := 0; i < FreeActiveDebts; i++ {
		d, err := env.debts.Create(ctx, CreateDebtInput{
			Ref: env.ref(), Type: model.DebtIOwe, PersonName: "Alice", AmountCents: 1000,
		})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		ids = append(ids, d.DebtID)
	}
	if _, err := env.debts.Cancel(ctx, ids[0]); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	// Only active debts count against the ceiling.
	if _, err := env.debts.Create(ctx, CreateDebtInput{
		Ref: env.ref(), Type: model.DebtIOwe, PersonName: "Alice", AmountCents: 1000,
	}); err != nil {
		t.Fatalf("create after cancel: %v", err)
	}
}

func TestPremiumBypassesDebtLimit(t *testing.T) {
	env := newDebtTestEnv(t)
	ctx := context.Background()
	_ = env.subRepo.CreateSubscription(ctx, &model.Subscription{
		UserID: env.userID,
		Status: model.SubscriptionLifetimePremium,
	})

	for i := 0; i < FreeActiveDebts+3; i++ {
		if _, err := env.debts.Create(ctx, CreateDebtInput{
			Ref: env.ref(), Type: model.DebtIOwe, PersonName: "Alice", AmountCents: 1000,
		}); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
}

func TestPartialThenFullPayment(t *testing.T) {
	env := newDebtTestEnv(t)
	ctx := context.Background()

	d, err := env.debts.Create(ctx, CreateDebtInput{
		Ref: env.ref(), Type: model.DebtIOwe, PersonName: "Alice", AmountCents: 10000,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, payment, err := env.debts.Pay(ctx, d.DebtID, 6000, "first installment")
	if err != nil {
		t.Fatalf("Pay: %v", err)
	}
	if updated.Status != model.DebtActive || updated.RemainingCents != 4000 {
		t.Errorf("after partial payment: status %q remaining %d, want active 4000", updated.Status, updated.RemainingCents)
	}
	if payment.AmountCents != 6000 || payment.Note != "first installment" {
		t.Errorf("payment = %+v", payment)
	}

	updated, _, err = env.debts.Pay(ctx, d.DebtID, 4000, "")
	if err != nil {
		t.Fatalf("Pay: %v", err)
	}
	if updated.Status != model.DebtPaid || updated.RemainingCents != 0 {
		t.Errorf("after final payment: status %q remaining %d, want paid 0", updated.Status, updated.RemainingCents)
	}

	// Settling what I owe is money out.
	linked := env.linkedTransactions(d.DebtID)
	if len(linked) != 2 {
		t.Fatalf("linked transactions = %d, want 2", len(linked))
	}
	for _, tx := range linked {
		if tx.Type != model.TransactionExpense {
			t.Errorf("payment tx type = %q, want expense", tx.Type)
		}
	}
}

func TestPaymentOnOwedToMeIsIncome(t *testing.T) {
	env := newDebtTestEnv(t)
	ctx := context.Background()

	d, _ := env.debts.Create(ctx, CreateDebtInput{
		Ref: env.ref(), Type: model.DebtOwedToMe, PersonName: "Bob", AmountCents: 3000,
	})
	if _, _, err := env.debts.Pay(ctx, d.DebtID, 3000, ""); err != nil {
		t.Fatalf("Pay: %v", err)
	}
	linked := env.linkedTransactions(d.DebtID)
	if len(linked) != 1 || linked[0].Type != model.TransactionIncome {
		t.Fatalf("repayment received should record income, got %+v", linked)
	}
}

func TestOverpaymentRejected(t *testing.T) {
	env := newDebtTestEnv(t)
	ctx := context.Background()

	d, _ := env.debts.Create(ctx, CreateDebtInput{
		Ref: env.ref(), Type: model.DebtIOwe, PersonName: "Alice", AmountCents: 10000,
	})
	_, _, err := env.debts.Pay(ctx, d.DebtID, 15000, "")
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	// Nothing changed.
	reloaded, _ := env.debts.Get(ctx, d.DebtID)
	if reloaded.RemainingCents != 10000 || reloaded.Status != model.DebtActive {
		t.Errorf("debt mutated by rejected payment: %+v", reloaded)
	}
	if len(env.debtRepo.payments) != 0 {
		t.Error("rejected payment must not be recorded")
	}
	if len(env.linkedTransactions(d.DebtID)) != 0 {
		t.Error("rejected payment must not create a transaction")
	}
}

func TestPayNonPositiveAmount(t *testing.T) {
	env := newDebtTestEnv(t)
	ctx := context.Background()

	d, _ := env.debts.Create(ctx, CreateDebtInput{
		Ref: env.ref(), Type: model.DebtIOwe, PersonName: "Alice", AmountCents: 1000,
	})
	for _, amount := range []int64{0, -500} {
		_, _, err := env.debts.Pay(ctx, d.DebtID, amount, "")
		var validationErr *ValidationError
		if !errors.As(err, &validationErr) {
			t.Errorf("amount %d: expected ValidationError, got %v", amount, err)
		}
	}
}

func TestPayClosedDebt(t *testing.T) {
	env := newDebtTestEnv(t)
	ctx := context.Background()

	d, _ := env.debts.Create(ctx, CreateDebtInput{
		Ref: env.ref(), Type: model.DebtIOwe, PersonName: "Alice", AmountCents: 1000,
	})
	if _, err := env.debts.Cancel(ctx, d.DebtID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	_, _, err := env.debts.Pay(ctx, d.DebtID, 500, "")
	var ruleErr *BusinessRuleError
	if !errors.As(err, &ruleErr) {
		t.Fatalf("expected BusinessRuleError, got %v", err)
	}
}

func TestPayMissingDebt(t *testing.T) {
	env := newDebtTestEnv(t)
	_, _, err := env.debts.Pay(context.Background(), "no-such-debt", 500, "")
	var notFoundErr *NotFoundError
	if !errors.As(err, &notFoundErr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestPayFull(t *testing.T) {
	env := newDebtTestEnv(t)
	ctx := context.Background()

	d, _ := env.debts.Create(ctx, CreateDebtInput{
		Ref: env.ref(), Type: model.DebtIOwe, PersonName: "Alice", AmountCents: 7500,
	})
	if _, _, err := env.debts.Pay(ctx, d.DebtID, 2500, ""); err != nil {
		t.Fatalf("Pay: %v", err)
	}
	updated, payment, err := env.debts.PayFull(ctx, d.DebtID, "settled")
	if err != nil {
		t.Fatalf("PayFull: %v", err)
	}
	if payment.AmountCents != 5000 {
		t.Errorf("full payment = %d, want 5000", payment.AmountCents)
	}
	if updated.Status != model.DebtPaid || updated.RemainingCents != 0 {
		t.Errorf("after PayFull: status %q remaining %d", updated.Status, updated.RemainingCents)
	}
}

func TestDeletePaymentReopensDebt(t *testing.T) {
	env := newDebtTestEnv(t)
	ctx := context.Background()

	d, _ := env.debts.Create(ctx, CreateDebtInput{
		Ref: env.ref(), Type: model.DebtIOwe, PersonName: "Alice", AmountCents: 10000,
	})
	_, payment, err := env.debts.Pay(ctx, d.DebtID, 10000, "")
	if err != nil {
		t.Fatalf("Pay: %v", err)
	}

	reopened, err := env.debts.DeletePayment(ctx, payment.PaymentID)
	if err != nil {
		t.Fatalf("DeletePayment: %v", err)
	}
	if reopened.Status != model.DebtActive || reopened.RemainingCents != 10000 {
		t.Errorf("after revert: status %q remaining %d, want active 10000", reopened.Status, reopened.RemainingCents)
	}

	// The reopened debt counts against the active ceiling again.
	res, err := env.usage.CheckLimit(ctx, env.userID, model.LimitDebts)
	if err != nil {
		t.Fatalf("CheckLimit: %v", err)
	}
	if res.CurrentUsage != 1 {
		t.Errorf("active debts counter = %d, want 1", res.CurrentUsage)
	}
}

func TestDeleteMissingPayment(t *testing.T) {
	env := newDebtTestEnv(t)
	_, err := env.debts.DeletePayment(context.Background(), "no-such-payment")
	var notFoundErr *NotFoundError
	if !errors.As(err, &notFoundErr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestCancelStates(t *testing.T) {
	env := newDebtTestEnv(t)
	ctx := context.Background()

	d, _ := env.debts.Create(ctx, CreateDebtInput{
		Ref: env.ref(), Type: model.DebtIOwe, PersonName: "Alice", AmountCents: 1000,
	})
	cancelled, err := env.debts.Cancel(ctx, d.DebtID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != model.DebtCancelled {
		t.Errorf("Status = %q, want cancelled", cancelled.Status)
	}

	_, err = env.debts.Cancel(ctx, d.DebtID)
	var ruleErr *BusinessRuleError
	if !errors.As(err, &ruleErr) {
		t.Fatalf("double cancel: expected BusinessRuleError, got %v", err)
	}

	_, err = env.debts.Cancel(ctx, "no-such-debt")
	var notFoundErr *NotFoundError
	if !errors.As(err, &notFoundErr) {
		t.Fatalf("cancel missing: expected NotFoundError, got %v", err)
	}
}

func TestUpdateDebtDetails(t *testing.T) {
	env := newDebtTestEnv(t)
	ctx := context.Background()

	due := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	d, _ := env.debts.Create(ctx, CreateDebtInput{
		Ref: env.ref(), Type: model.DebtIOwe, PersonName: "Alice", AmountCents: 1000, DueDate: &due,
	})

	newName := "Alice Smith"
	updated, err := env.debts.Update(ctx, d.DebtID, UpdateDebtInput{PersonName: &newName, ClearDue: true})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.PersonName != "Alice Smith" {
		t.Errorf("PersonName = %q", updated.PersonName)
	}
	if updated.DueDate != nil {
		t.Errorf("DueDate = %v, want cleared", updated.DueDate)
	}
	if updated.RemainingCents != 1000 {
		t.Error("Update must not touch amounts")
	}

	empty := " "
	_, err = env.debts.Update(ctx, d.DebtID, UpdateDebtInput{PersonName: &empty})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("blank name: expected ValidationError, got %v", err)
	}
}

func TestSummary(t *testing.T) {
	env := newDebtTestEnv(t)
	ctx := context.Background()

	_, _ = env.debts.Create(ctx, CreateDebtInput{
		Ref: env.ref(), Type: model.DebtIOwe, PersonName: "Alice", AmountCents: 4000,
	})
	owed, _ := env.debts.Create(ctx, CreateDebtInput{
		Ref: env.ref(), Type: model.DebtOwedToMe, PersonName: "Bob", AmountCents: 10000,
	})
	if _, _, err := env.debts.Pay(ctx, owed.DebtID, 3000, ""); err != nil {
		t.Fatalf("Pay: %v", err)
	}
	// Cancelled debts are excluded.
	cancelled, _ := env.debts.Create(ctx, CreateDebtInput{
		Ref: env.ref(), Type: model.DebtIOwe, PersonName: "Carol", AmountCents: 9999,
	})
	if _, err := env.debts.Cancel(ctx, cancelled.DebtID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	s, err := env.debts.Summary(ctx, env.ref())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if s.TotalIOweCents != 4000 {
		t.Errorf("TotalIOweCents = %d, want 4000", s.TotalIOweCents)
	}
	if s.TotalOwedToMeCents != 7000 {
		t.Errorf("TotalOwedToMeCents = %d, want 7000 (remaining after partial payment)", s.TotalOwedToMeCents)
	}
	if s.NetBalanceCents != 3000 {
		t.Errorf("NetBalanceCents = %d, want 3000", s.NetBalanceCents)
	}
	if s.IOweCount != 1 || s.OwedToMeCount != 1 {
		t.Errorf("counts = %d/%d, want 1/1", s.IOweCount, s.OwedToMeCount)
	}
}

func TestDeleteDebtResyncsCounter(t *testing.T) {
	env := newDebtTestEnv(t)
	ctx := context.Background()

	d, _ := env.debts.Create(ctx, CreateDebtInput{
		Ref: env.ref(), Type: model.DebtIOwe, PersonName: "Alice", AmountCents: 1000,
	})
	if err := env.debts.Delete(ctx, d.DebtID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	res, err := env.usage.CheckLimit(ctx, env.userID, model.LimitDebts)
	if err != nil {
		t.Fatalf("CheckLimit: %v", err)
	}
	if res.CurrentUsage != 0 {
		t.Errorf("active debts counter = %d, want 0", res.CurrentUsage)
	}

	if err := env.debts.Delete(ctx, d.DebtID); err == nil {
		t.Fatal("deleting twice should fail")
	}
}
