package ui

import (
	"errors"
	"net/http"

	"taskbounty/portal/internal/auth"
	"taskbounty/portal/internal/common"
	"taskbounty/portal/internal/constants"
	"taskbounty/portal/internal/middleware"
	"taskbounty/portal/internal/models/dtos"
	"taskbounty/portal/internal/payment"
	"taskbounty/portal/internal/store"
	"taskbounty/portal/internal/validation"
)

func (h *Handler) refreshBalance(r *http.Request, rq request) {
	if out := rq.store.Users.FetchBalance(r.Context(), rq.token); out.Status == store.Rejected {
		middleware.Logger(r.Context()).Warnw("Balance refresh failed", "error", out.Err)
	}
}

func (h *Handler) loadWallet(r *http.Request, rq request, data map[string]interface{}) {
	h.refreshBalance(r, rq)
	data["User"] = rq.store.Users.Snapshot().Current
}

// Deposit creates a wallet order with the backend and renders the checkout
// widget for it.
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	back := nextURL(r, "/wallet")

	amount, errs := validation.Amount(r.FormValue("amount"))
	if !errs.OK() {
		h.renderPanel(w, r, rq, auth.TabWallet, map[string]interface{}{
			"Errors": errs,
			"Status": http.StatusUnprocessableEntity,
		})
		return
	}

	order, out := rq.store.Users.CreateDepositOrder(r.Context(), rq.token, amount)
	if !out.OK() {
		if !out.Superseded() {
			out.Message = constants.MsgOrderFailed
		}
		h.failed(w, r, rq, back, out)
		return
	}

	co, err := h.checkout.Begin(rq.sess, rq.user, payment.KindDeposit, order, amount, "")
	if err != nil {
		middleware.Logger(r.Context()).Errorw("Checkout could not start", "kind", payment.KindDeposit, "error", err)
		h.redirect(w, r, rq, back, auth.FlashError, constants.MsgOrderFailed)
		return
	}
	h.renderCheckout(w, r, rq, co, back)
}

func (h *Handler) renderCheckout(w http.ResponseWriter, r *http.Request, rq request, co *payment.Checkout, back string) {
	data := h.page(r, rq, "Checkout")
	data["Checkout"] = co
	data["Back"] = back
	RenderTemplate(w, "checkout.html", data)
}

// callback reads the widget's completion fields. They are forwarded to the
// backend untouched.
func callback(r *http.Request) payment.Callback {
	return payment.Callback{
		PaymentID: r.FormValue("payment_id"),
		OrderID:   r.FormValue("order_id"),
		Signature: r.FormValue("signature"),
		Intent:    r.FormValue("intent"),
	}
}

// complete redeems the callback's checkout intent for the current session.
func (h *Handler) complete(w http.ResponseWriter, r *http.Request, rq request, kind, back string) (*payment.Completed, bool) {
	if rq.sess == nil {
		unauthorized(w, r)
		return nil, false
	}
	done, err := h.checkout.Complete(rq.sess, kind, callback(r))
	if err != nil {
		level := middleware.Logger(r.Context()).Warnw
		if errors.Is(err, common.ErrIntentUsed) {
			level = middleware.Logger(r.Context()).Infow
		}
		level("Checkout callback refused", "kind", kind, "error", err)
		h.redirect(w, r, rq, back, auth.FlashError, constants.MsgPaymentFailed)
		return nil, false
	}
	return done, true
}

// VerifyDeposit forwards a completed top-up to the backend and mirrors the
// new balance.
func (h *Handler) VerifyDeposit(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	back := "/user-info/" + auth.TabWallet

	done, ok := h.complete(w, r, rq, payment.KindDeposit, back)
	if !ok {
		return
	}
	out := rq.store.Users.VerifyDeposit(r.Context(), rq.token, done.Proof, done.Amount)
	if !out.OK() {
		if h.checkout.Release(done, out.Err) {
			middleware.Logger(r.Context()).Infow("Checkout intent released for retry", "error", out.Err)
		}
		h.failed(w, r, rq, back, out)
		return
	}
	h.success(w, r, rq, back, constants.MsgDepositSuccess)
}

func (h *Handler) loadSubscription(r *http.Request, rq request, data map[string]interface{}) {
	out := rq.store.Subscription.FetchStatus(r.Context(), rq.token)
	snap := rq.store.Subscription.Snapshot()
	if out.OK() && rq.sess != nil && !sameSubscription(rq.sess.Subscription, snap.Data) {
		rq.sess.Subscription = snap.Data
		h.save(r.Context(), rq.sess)
	}

	data["Plans"] = payment.Plans
	data["Active"] = snap.Active(h.now())
	data["Subscription"] = snap.Data
	data["Error"] = errorMessage(out)
}

func sameSubscription(a, b dtos.Subscription) bool {
	if a.IsActive != b.IsActive || a.SubscriptionID != b.SubscriptionID {
		return false
	}
	if a.EndDate == nil || b.EndDate == nil {
		return a.EndDate == b.EndDate
	}
	return a.EndDate.Equal(*b.EndDate)
}

// Subscribe creates a subscription order for the chosen plan and renders
// the checkout widget for it.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	back := nextURL(r, "/subscription")

	plan, ok := payment.PlanFor(constants.PlanType(r.FormValue("plan")))
	if !ok {
		h.redirect(w, r, rq, back, auth.FlashError, constants.GetErrorMessage(constants.ErrCodeInvalidInput))
		return
	}

	order, out := rq.store.Subscription.CreateOrder(r.Context(), rq.token, plan.Type)
	if !out.OK() {
		if !out.Superseded() {
			out.Message = constants.MsgOrderFailed
		}
		h.failed(w, r, rq, back, out)
		return
	}

	co, err := h.checkout.Begin(rq.sess, rq.user, payment.KindSubscription, order, plan.Price, plan.Type)
	if err != nil {
		middleware.Logger(r.Context()).Errorw("Checkout could not start", "kind", payment.KindSubscription, "error", err)
		h.redirect(w, r, rq, back, auth.FlashError, constants.MsgOrderFailed)
		return
	}
	h.renderCheckout(w, r, rq, co, back)
}

// VerifySubscription forwards a completed plan purchase and records the new
// entitlement in the session.
func (h *Handler) VerifySubscription(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	back := "/user-info/" + auth.TabSubscription

	done, ok := h.complete(w, r, rq, payment.KindSubscription, back)
	if !ok {
		return
	}
	sub, out := rq.store.Subscription.Verify(r.Context(), rq.token, done.Proof, done.Plan)
	if !out.OK() {
		if h.checkout.Release(done, out.Err) {
			middleware.Logger(r.Context()).Infow("Checkout intent released for retry", "error", out.Err)
		}
		h.failed(w, r, rq, back, out)
		return
	}
	rq.sess.Subscription = sub
	rq.store.Users.SetSubscribed(true)
	h.success(w, r, rq, back, constants.MsgSubscribed)
}

func (h *Handler) loadWithdraw(r *http.Request, rq request, data map[string]interface{}) {
	h.refreshBalance(r, rq)
	data["User"] = rq.store.Users.Snapshot().Current
}

// Withdraw checks the amount against the last known balance before asking
// the backend.
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	rq := h.load(r)
	back := nextURL(r, "/withdraw")

	user := rq.store.Users.Snapshot().Current
	if user == nil {
		unauthorized(w, r)
		return
	}
	amount, errs := validation.Withdraw(r.FormValue("amount"), user.WalletBalance)
	if !errs.OK() {
		h.renderPanel(w, r, rq, auth.TabWithdraw, map[string]interface{}{
			"Errors": errs,
			"Amount": r.FormValue("amount"),
			"Status": http.StatusUnprocessableEntity,
		})
		return
	}

	out := rq.store.Users.Withdraw(r.Context(), rq.token, amount)
	if !out.OK() {
		h.failed(w, r, rq, back, out)
		return
	}
	h.success(w, r, rq, back, constants.MsgWithdrawSuccess)
}
