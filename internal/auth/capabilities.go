package auth

import (
	"github.com/shopspring/decimal"

	"taskbounty/portal/internal/constants"
	"taskbounty/portal/internal/models/dtos"
)

// Route role sets shared by the router and the navigation.
var (
	AdminOnly  = []constants.Role{constants.RoleAdmin}
	PosterOnly = []constants.Role{constants.RolePoster}
	HunterOnly = []constants.Role{constants.RoleHunter}
)

// Dashboard tab keys.
const (
	TabProfile       = "profile"
	TabAddCategories = "add-categories"
	TabAllUsers      = "all-users"
	TabListTasks     = "list-tasks"
	TabTransactions  = "transactions"
	TabMyTasks       = "my-tasks"
	TabWallet        = "wallet"
	TabSubscription  = "subscription"
	TabMyWork        = "my-work"
	TabWithdraw      = "withdraw"
)

var tabsByRole = map[constants.Role][]string{
	constants.RoleAdmin:  {TabAddCategories, TabAllUsers, TabListTasks, TabTransactions},
	constants.RolePoster: {TabMyTasks, TabWallet, TabSubscription},
	constants.RoleHunter: {TabMyWork, TabWithdraw},
}

// DashboardTabs lists the tabs a viewer may open, profile first.
func DashboardTabs(user *dtos.User) []string {
	if user == nil {
		return nil
	}
	return append([]string{TabProfile}, tabsByRole[user.Role]...)
}

// CanOpenTab reports whether tab is one of the viewer's dashboard tabs.
func CanOpenTab(user *dtos.User, tab string) bool {
	for _, t := range DashboardTabs(user) {
		if t == tab {
			return true
		}
	}
	return false
}

// CanNavigate is the role gate reduced to a yes/no, for hiding links.
func CanNavigate(user *dtos.User, allowed ...constants.Role) bool {
	if len(allowed) == 0 {
		return user != nil
	}
	return ResolveRole(user, allowed...) == Allow
}

// CanCreateTask checks that a poster's balance covers the budget.
func CanCreateTask(user *dtos.User, budget decimal.Decimal) bool {
	return user != nil && user.Role == constants.RolePoster && budget.LessThanOrEqual(user.WalletBalance)
}

// CanWithdraw checks the amount against the last known balance.
func CanWithdraw(user *dtos.User, amount decimal.Decimal) bool {
	return user != nil && amount.IsPositive() && amount.LessThanOrEqual(user.WalletBalance)
}

// TaskCapabilities is everything a viewer may do on the task detail screen.
type TaskCapabilities struct {
	SignedIn    bool
	IsOwner     bool
	IsAssignee  bool
	AnyAccepted bool

	// OwnBid is the viewer's bid on the task, if any.
	OwnBid     *dtos.Bid
	EditingBid bool
	// CanBid shows the bid form, in edit mode when EditingBid is set.
	CanBid bool
	// AlreadyBid shows the notice in place of the form.
	AlreadyBid bool

	CanSubmitWork       bool
	HasSubmitted        bool
	CanReviewSubmission bool
	CanEditTask         bool
	CanDeleteTask       bool

	viewerID string
	status   constants.TaskStatus
}

// ForTask resolves the viewer's capabilities on task given its bids and the
// current bid edit cursor.
func ForTask(viewer *dtos.User, task *dtos.Task, bids []dtos.Bid, editID string) TaskCapabilities {
	c := TaskCapabilities{}
	if task == nil {
		return c
	}
	c.status = task.Status
	c.AnyAccepted = dtos.Accepted(bids) != nil
	c.HasSubmitted = task.HasSubmission()

	if viewer == nil {
		return c
	}
	c.SignedIn = true
	c.viewerID = viewer.ID
	c.IsOwner = task.PostedBy.Is(viewer.ID)
	c.IsAssignee = viewer.Role == constants.RoleHunter && task.AssignedTo.Is(viewer.ID)
	c.OwnBid = dtos.FindBy(bids, viewer.ID)
	c.EditingBid = editID != "" && c.OwnBid != nil && c.OwnBid.ID == editID

	biddable := task.Status != constants.TaskAccepted && task.Status != constants.TaskCompleted
	bidderRole := viewer.Role != constants.RolePoster && viewer.Role != constants.RoleAdmin
	c.CanBid = biddable && bidderRole && (c.OwnBid == nil || c.EditingBid)
	c.AlreadyBid = biddable && bidderRole && c.OwnBid != nil && !c.EditingBid

	c.CanSubmitWork = c.IsAssignee && !c.HasSubmitted && !submissionLocked(task.Status)
	c.CanReviewSubmission = c.IsOwner && task.Status.AwaitingReview()

	editable := c.IsOwner && task.Status != constants.TaskCompleted
	c.CanEditTask = editable
	c.CanDeleteTask = editable
	return c
}

func submissionLocked(s constants.TaskStatus) bool {
	switch s {
	case constants.TaskSubmitted, constants.TaskUnderReview, constants.TaskCompleted, constants.TaskAccepted:
		return true
	}
	return false
}

// CanModifyBid reports whether the viewer may edit or delete bid.
func (c TaskCapabilities) CanModifyBid(bid dtos.Bid) bool {
	return c.SignedIn && bid.UserID.Is(c.viewerID) && c.status == constants.TaskOpen && bid.Status != constants.BidAccepted
}

// CanDecideBid reports whether the viewer may accept or reject bid.
func (c TaskCapabilities) CanDecideBid(bid dtos.Bid) bool {
	return c.IsOwner && bid.Status == constants.BidPending && !c.AnyAccepted && c.status != constants.TaskAccepted
}

// CanEditOwnedTask is the my-tasks table rule: owners edit or delete until completion.
func CanEditOwnedTask(viewer *dtos.User, task dtos.Task) bool {
	return viewer != nil && task.PostedBy.Is(viewer.ID) && task.Status != constants.TaskCompleted
}
