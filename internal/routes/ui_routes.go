package routes

import (
	"github.com/go-chi/chi/v5"

	"taskbounty/portal/internal/auth"
	"taskbounty/portal/internal/constants"
	"taskbounty/portal/internal/middleware"
	"taskbounty/portal/portal/ui"
)

// RegisterUIRoutes registers the portal screens. Role gates mirror the
// dashboard tabs; per-task rules are checked by the handlers.
func RegisterUIRoutes(r chi.Router, h *ui.Handler, limiter *middleware.RateLimiter) {
	// Public screens
	r.Get("/", h.Home)
	r.Get("/categories", h.Categories)
	r.Get("/all-tasks", h.Browse)
	r.Get("/tasks/{taskID}", h.TaskDetail)
	r.Get("/leaderboard", h.Leaderboard)
	r.Get("/task-submission", h.TaskSubmissions)
	r.Get("/unauthorized", h.Unauthorized)

	// Auth screens; form posts are rate limited per client
	r.Get("/login", h.LoginPage)
	r.Get("/register", h.RegisterPage)
	r.Get("/forgot-password", h.ForgotPasswordPage)
	r.Get("/reset-password", h.ResetPasswordPage)
	r.Group(func(limited chi.Router) {
		limited.Use(limiter.Middleware)
		limited.Post("/login", h.Login)
		limited.Post("/register", h.Register)
		limited.Post("/forgot-password", h.ForgotPassword)
		limited.Post("/reset-password", h.ResetPassword)
	})
	r.Post("/logout", h.Logout)

	r.Group(func(private chi.Router) {
		private.Use(middleware.RequireAuth)

		private.Get("/user-info", h.Dashboard)
		private.Get("/user-info/{tab}", h.Dashboard)
		private.Post("/user-info/profile", h.UpdateProfile)

		// Bids
		private.Post("/tasks/{taskID}/bids", h.PlaceBid)
		private.Post("/tasks/{taskID}/bids/cancel", h.CancelBidEdit)
		private.Post("/tasks/{taskID}/bids/{bidID}/edit", h.EditBid)
		private.Post("/tasks/{taskID}/bids/{bidID}/delete", h.DeleteBid)

		// Admin
		private.Group(func(admin chi.Router) {
			admin.Use(middleware.RequireRole(auth.AdminOnly...))
			admin.Get("/add-categories", h.Standalone(auth.TabAddCategories))
			admin.Post("/add-categories", h.SaveCategory)
			admin.Post("/add-categories/cancel", h.CancelCategoryEdit)
			admin.Post("/add-categories/{categoryID}/edit", h.EditCategory)
			admin.Post("/add-categories/{categoryID}/delete", h.DeleteCategory)
			admin.Get("/all-users", h.Standalone(auth.TabAllUsers))
			admin.Post("/all-users/{userID}/active", h.SetUserActive)
		})

		// Poster
		private.Group(func(poster chi.Router) {
			poster.Use(middleware.RequireRole(auth.PosterOnly...))
			poster.Get("/add-tasks", h.TaskForm)
			poster.Post("/add-tasks", h.SaveTask)
			poster.Post("/add-tasks/cancel", h.CancelTaskEdit)
			poster.Get("/my-tasks", h.Standalone(auth.TabMyTasks))
			poster.Post("/tasks/{taskID}/edit", h.EditTask)
			poster.Post("/tasks/{taskID}/delete", h.DeleteTask)
			poster.Post("/tasks/{taskID}/bids/{bidID}/accept", h.DecideBid(constants.BidAccepted))
			poster.Post("/tasks/{taskID}/bids/{bidID}/reject", h.DecideBid(constants.BidRejected))
			poster.Post("/tasks/{taskID}/review", h.ReviewSubmission)
			poster.Get("/wallet", h.Standalone(auth.TabWallet))
			poster.Post("/wallet/deposit", h.Deposit)
			poster.Get("/subscription", h.Standalone(auth.TabSubscription))
			poster.Post("/subscription", h.Subscribe)
		})

		// Hunter
		private.Group(func(hunter chi.Router) {
			hunter.Use(middleware.RequireRole(auth.HunterOnly...))
			hunter.Get("/hunter/{id}", h.Standalone(auth.TabMyWork))
			hunter.Post("/tasks/{taskID}/submit", h.SubmitWork)
			hunter.Get("/withdraw", h.Standalone(auth.TabWithdraw))
			hunter.Post("/withdraw", h.Withdraw)
		})
	})
}

// RegisterCheckoutRoutes registers the payment widget callbacks.
func RegisterCheckoutRoutes(r chi.Router, h *ui.Handler) {
	r.Post("/deposit/verify", h.VerifyDeposit)
	r.Post("/subscription/verify", h.VerifySubscription)
}
