package constants

// User-visible notifications.
const (
	MsgGenericFailure      = "Something went wrong. Please try again."
	MsgAccountInactive     = "Your account is inactive. Please contact admin."
	MsgLoginFailed         = "Login failed. Please check your credentials."
	MsgLoginSuccess        = "Logged in successfully"
	MsgRegisterSuccess     = "Registration successful. Please log in."
	MsgInsufficientTopUp   = "Insufficient wallet balance. Please top up your wallet."
	MsgInsufficientBalance = "Insufficient wallet balance"
	MsgAlreadyBid          = "You have already placed a bid for this task."
	MsgBidPlaced           = "Bid placed successfully"
	MsgBidUpdated          = "Bid updated successfully"
	MsgBidDeleted          = "Bid deleted"
	MsgBidAssigned         = "Bid accepted and task assigned"
	MsgBidRejected         = "Bid rejected"
	MsgTaskCreated         = "Task created successfully"
	MsgTaskUpdated         = "Task updated successfully"
	MsgTaskDeleted         = "Task deleted"
	MsgWorkSubmitted       = "Work submitted successfully"
	MsgTaskCompleted       = "Task marked as completed"
	MsgTaskIncomplete      = "Task marked as incomplete"
	MsgCategoryCreated     = "Category added"
	MsgCategoryUpdated     = "Category updated"
	MsgCategoryDeleted     = "Category deleted"
	MsgProfileUpdated      = "Profile updated"
	MsgUserActivated       = "User activated"
	MsgUserDeactivated     = "User deactivated"
	MsgDepositSuccess      = "Wallet topped up successfully"
	MsgWithdrawSuccess     = "Withdrawal successful"
	MsgSubscribed          = "Subscription successful!"
	MsgPaymentFailed       = "Payment verification failed"
	MsgOrderFailed         = "Unable to start payment. Please try again."
	MsgOTPSent             = "OTP sent to your email"
	MsgPasswordReset       = "Password reset successful. Please log in."
	MsgSessionExpired      = "Your session has expired. Please log in again."
	MsgTooManyRequests     = "Too many requests"
)
