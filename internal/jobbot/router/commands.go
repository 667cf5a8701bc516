package router

import (
	"context"
	"errors"
	"strings"

	"github.com/artlix/backend/internal/jobbot/directory"
	e "github.com/artlix/backend/internal/jobbot/errors"
	"github.com/artlix/backend/internal/jobbot/models"
	"go.uber.org/zap"
)

const defaultOwnerName = "Owner"

func (r *Router) handleHelp(context.Context, models.InboundMessage, string) (string, error) {
	return helpText, nil
}

func (r *Router) handleOwnerSetup(ctx context.Context, msg models.InboundMessage, title string) (string, error) {
	company, owner, created, err := r.directory.SetupOwnerCompany(ctx, msg.SenderID, ownerName(msg), title)
	switch {
	case errors.Is(err, e.ErrInvalidInput):
		return ownerSetupUsage, nil
	case err != nil:
		return "", err
	case !created:
		return existingCompanyReply(company), nil
	}
	return companyCreatedReply(company, owner, true), nil
}

func (r *Router) handleNewCompany(ctx context.Context, msg models.InboundMessage, title string) (string, error) {
	if title == "" {
		return newCompanyUsage, nil
	}
	company, owner, err := r.directory.AddCompany(ctx, msg.SenderID, ownerName(msg), title)
	switch {
	case errors.Is(err, e.ErrInvalidInput):
		return newCompanyUsage, nil
	case err != nil:
		return "", err
	}
	return companyCreatedReply(company, owner, false), nil
}

func (r *Router) handleMyCompanies(ctx context.Context, msg models.InboundMessage, _ string) (string, error) {
	companies, err := r.directory.ListCompaniesByOwner(ctx, msg.SenderID)
	if err != nil {
		return "", err
	}
	if len(companies) == 0 {
		return noCompaniesText, nil
	}
	return companyListReply(companies), nil
}

func (r *Router) handleDeleteCompany(ctx context.Context, msg models.InboundMessage, args string) (string, error) {
	code := firstField(args)
	if code == "" {
		return deleteCompanyUsage, nil
	}

	company, err := r.directory.GetCompanyByCode(ctx, code)
	switch {
	case errors.Is(err, e.ErrNotFound):
		return companyNotFoundText, nil
	case err != nil:
		return "", err
	}

	if err := directory.RequireOwner(company, msg.SenderID); err != nil {
		r.logger.Warn("Delete refused for non-owner",
			zap.Int64("sender_id", msg.SenderID),
			zap.String("office_code", company.OfficeCode),
		)
		return notOwnerText, nil
	}

	report, err := r.directory.DeleteCompanyAndCascade(ctx, company.ID)
	if err != nil {
		return "", err
	}
	if report.Companies == 0 {
		return deleteFailedText, nil
	}
	return companyDeletedReply(company, report), nil
}

func (r *Router) handleJoinCompany(ctx context.Context, msg models.InboundMessage, args string) (string, error) {
	code := firstField(args)
	name := strings.TrimSpace(strings.TrimPrefix(args, code))
	if code == "" || name == "" {
		return joinCompanyUsage, nil
	}

	company, err := r.directory.GetCompanyByCode(ctx, code)
	switch {
	case errors.Is(err, e.ErrNotFound):
		return joinNotFoundText, nil
	case err != nil:
		return "", err
	}

	employee, err := r.directory.GetOrCreateEmployee(ctx, company.ID, msg.SenderID, name)
	if err != nil {
		return "", err
	}
	return joinedReply(company, employee), nil
}

func (r *Router) handleLeaveCompany(ctx context.Context, msg models.InboundMessage, _ string) (string, error) {
	deleted, err := r.directory.DeleteEmployee(ctx, msg.SenderID)
	if err != nil {
		return "", err
	}
	if deleted == 0 {
		return notLinkedText, nil
	}
	return leftReply(deleted), nil
}

func (r *Router) handleJob(ctx context.Context, msg models.InboundMessage, _ string) (string, error) {
	employee, err := r.directory.GetEmployee(ctx, msg.SenderID)
	switch {
	case errors.Is(err, e.ErrNotFound):
		return unknownSenderText, nil
	case err != nil:
		return "", err
	}

	job, err := r.capturer.Capture(ctx, employee, msg.Text)
	switch {
	case errors.Is(err, e.ErrNotAJob):
		return notAJobText, nil
	case err != nil:
		return "", err
	}

	r.metrics.ObserveJobCaptured()
	r.notifyOwner(ctx, job, msg)
	return jobCapturedReply(job), nil
}

// notifyOwner tells the company owner about a job captured by someone else.
// Failures are logged only.
func (r *Router) notifyOwner(ctx context.Context, job *models.Job, msg models.InboundMessage) {
	company, err := r.directory.GetCompany(ctx, job.CompanyID)
	if err != nil {
		r.logger.Warn("Failed to load company for owner notice", zap.Error(err))
		return
	}
	if company.OwnerID == msg.SenderID {
		return
	}
	if err := r.replier.Reply(ctx, company.OwnerID, ownerNoticeReply(job, msg)); err != nil {
		r.logger.Warn("Failed to notify owner",
			zap.Int64("owner_id", company.OwnerID),
			zap.Error(err),
		)
	}
}

func ownerName(msg models.InboundMessage) string {
	if name := strings.TrimSpace(msg.SenderName); name != "" {
		return name
	}
	return defaultOwnerName
}

func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
