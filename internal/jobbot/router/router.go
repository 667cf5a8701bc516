// Package router dispatches inbound chat messages to tenant commands or,
// when no command matches, to job capture. Every failure inside a route is
// absorbed here: it is logged, counted and answered with a generic notice.
package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/artlix/backend/internal/jobbot/metrics"
	"github.com/artlix/backend/internal/jobbot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Directory is the tenant directory as seen by the router.
type Directory interface {
	SetupOwnerCompany(ctx context.Context, ownerID int64, ownerName, title string) (*models.Company, *models.Employee, bool, error)
	AddCompany(ctx context.Context, ownerID int64, ownerName, title string) (*models.Company, *models.Employee, error)
	GetCompany(ctx context.Context, id uuid.UUID) (*models.Company, error)
	ListCompaniesByOwner(ctx context.Context, ownerID int64) ([]*models.Company, error)
	GetCompanyByCode(ctx context.Context, code string) (*models.Company, error)
	DeleteCompanyAndCascade(ctx context.Context, companyID uuid.UUID) (models.DeleteReport, error)
	GetOrCreateEmployee(ctx context.Context, companyID uuid.UUID, externalUserID int64, name string) (*models.Employee, error)
	GetEmployee(ctx context.Context, externalUserID int64) (*models.Employee, error)
	DeleteEmployee(ctx context.Context, externalUserID int64) (int64, error)
}

// Capturer is the job capture workflow.
type Capturer interface {
	Capture(ctx context.Context, employee *models.Employee, text string) (*models.Job, error)
}

// Replier sends a reply to a chat. Text may contain inline HTML markup.
type Replier interface {
	Reply(ctx context.Context, chatID int64, text string) error
}

type handlerFunc func(ctx context.Context, msg models.InboundMessage, args string) (string, error)

type command struct {
	route  string
	handle handlerFunc
}

// Router dispatches inbound chat messages to tenant commands or job capture.
type Router struct {
	directory Directory
	capturer  Capturer
	replier   Replier
	metrics   *metrics.Metrics
	logger    *zap.Logger
	commands  map[string]command
}

// New builds a Router. m may be nil.
func New(directory Directory, capturer Capturer, replier Replier, m *metrics.Metrics, logger *zap.Logger) *Router {
	r := &Router{
		directory: directory,
		capturer:  capturer,
		replier:   replier,
		metrics:   m,
		logger:    logger.Named("router"),
	}
	r.commands = map[string]command{
		"/start":          {route: metrics.RouteHelp, handle: r.handleHelp},
		"/help":           {route: metrics.RouteHelp, handle: r.handleHelp},
		"/owner_setup":    {route: metrics.RouteOwnerSetup, handle: r.handleOwnerSetup},
		"/new_company":    {route: metrics.RouteNewCompany, handle: r.handleNewCompany},
		"/my_companies":   {route: metrics.RouteMyCompanies, handle: r.handleMyCompanies},
		"/delete_company": {route: metrics.RouteDeleteCompany, handle: r.handleDeleteCompany},
		"/join_company":   {route: metrics.RouteJoinCompany, handle: r.handleJoinCompany},
		"/leave_company":  {route: metrics.RouteLeaveCompany, handle: r.handleLeaveCompany},
	}
	return r
}

// Handle routes one message and sends exactly one reply to the sender's chat.
// It never returns an error and never panics.
func (r *Router) Handle(ctx context.Context, msg models.InboundMessage) {
	cmd, args := r.match(msg.Text)
	logger := r.logger.With(
		zap.String("route", cmd.route),
		zap.Int64("sender_id", msg.SenderID),
		zap.Int64("chat_id", msg.ChatID),
	)
	r.metrics.ObserveMessage(cmd.route)

	reply, err := r.dispatch(ctx, cmd, msg, args)
	if err != nil {
		logger.Error("Failed to handle message", zap.Error(err))
		r.metrics.ObserveFailure(cmd.route)
		reply = failureText
	}

	if err := r.replier.Reply(ctx, msg.ChatID, reply); err != nil {
		logger.Error("Failed to send reply", zap.Error(err))
	}
}

func (r *Router) dispatch(ctx context.Context, cmd command, msg models.InboundMessage, args string) (reply string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic in %s route: %v", cmd.route, p)
		}
	}()
	return cmd.handle(ctx, msg, args)
}

// match resolves the leading token to a command. Tokens are matched exactly
// after dropping a "@botname" suffix; anything else goes to job capture.
func (r *Router) match(text string) (command, string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return command{route: metrics.RouteJobCapture, handle: r.handleJob}, text
	}

	token, args := text, ""
	if i := strings.IndexAny(text, " \t\n"); i >= 0 {
		token, args = text[:i], strings.TrimSpace(text[i+1:])
	}
	if at := strings.IndexByte(token, '@'); at > 0 {
		token = token[:at]
	}

	if cmd, ok := r.commands[token]; ok {
		return cmd, args
	}
	return command{route: metrics.RouteJobCapture, handle: r.handleJob}, text
}
