package router

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/artlix/backend/internal/jobbot/models"
)

const (
	helpText = "👋 Hey! I'm Artlix.\n\n" +
		"I help construction teams capture jobs, schedule work,\n" +
		"and keep owners in the loop.\n\n" +
		"Getting started:\n" +
		"• Owners: /owner_setup My Company Name\n" +
		"• Employees: /join_company OFFICE_CODE Your Name\n\n" +
		"Extra owner commands:\n" +
		"• /my_companies\n" +
		"• /new_company Another Company Name\n" +
		"• /delete_company OFFICE_CODE\n" +
		"Employees can leave with:\n" +
		"• /leave_company"

	ownerSetupUsage = "To set up your first company, use:\n" +
		"<code>/owner_setup My Company Name</code>"
	newCompanyUsage = "To create a new company, use:\n" +
		"<code>/new_company Another Company Name</code>"
	deleteCompanyUsage = "To delete a company, use:\n" +
		"<code>/delete_company OFFICE_CODE</code>"
	joinCompanyUsage = "To join a company, use:\n" +
		"<code>/join_company OFFICE_CODE Your Name</code>"

	noCompaniesText = "You don't own any companies yet.\n\n" +
		"Create one with:\n" +
		"<code>/owner_setup My Company Name</code>"
	companyNotFoundText = "❌ I couldn't find a company with that office code."
	joinNotFoundText    = companyNotFoundText + "\n" +
		"Double-check the code with your owner."
	notOwnerText = "❌ You are not the owner of this company, " +
		"so you can't delete it."
	deleteFailedText = "Something went wrong while deleting that company."

	notLinkedText = "You are not currently linked to any company.\n\n" +
		"To join one, use:\n" +
		"<code>/join_company OFFICE_CODE Your Name</code>"
	unknownSenderText = "I don't know which company you're in yet.\n\n" +
		"Ask your owner for the office code, then run:\n" +
		"<code>/join_company OFFICE_CODE Your Name</code>"
	notAJobText = "I couldn't understand this as a job yet.\n" +
		"Try sending something like:\n" +
		"<i>\"Pouring concrete for John at 123 Main on Friday morning\"</i>"

	failureText = "⚠️ Something went wrong while handling your message. Please try again later."
)

const notAvailable = "N/A"

func esc(s string) string {
	return html.EscapeString(s)
}

func optional(s *string) string {
	if s == nil {
		return notAvailable
	}
	return esc(*s)
}

func formatBudget(b *float64) string {
	if b == nil {
		return notAvailable
	}
	return strconv.FormatFloat(*b, 'f', -1, 64)
}

func formatWhen(t *time.Time) string {
	if t == nil {
		return "unscheduled"
	}
	return t.UTC().Format(time.RFC3339)
}

func existingCompanyReply(company *models.Company) string {
	return "✅ You already have at least one company set up.\n\n" +
		"Example:\n" +
		fmt.Sprintf("🏢 <b>%s</b>\n", esc(company.Title)) +
		fmt.Sprintf("🔑 Office code: <code>%s</code>\n\n", company.OfficeCode) +
		"You can see all your companies with:\n" +
		"<code>/my_companies</code>\n\n" +
		"You can create a new one with:\n" +
		"<code>/new_company Another Company Name</code>"
}

func companyCreatedReply(company *models.Company, owner *models.Employee, first bool) string {
	var b strings.Builder
	if first {
		b.WriteString("✅ Company created!\n\n")
	} else {
		b.WriteString("✅ New company created!\n\n")
	}
	fmt.Fprintf(&b, "🏢 <b>%s</b>\n", esc(company.Title))
	fmt.Fprintf(&b, "👑 Owner: %s\n", esc(owner.DisplayName))
	fmt.Fprintf(&b, "🔑 Office code (share with your team): <code>%s</code>\n\n", company.OfficeCode)
	b.WriteString("Employees join with:\n")
	fmt.Fprintf(&b, "<code>/join_company %s Their Name</code>\n\n", company.OfficeCode)
	if first {
		b.WriteString("You can create more companies later with:\n" +
			"<code>/new_company Another Company Name</code>")
	} else {
		b.WriteString("See all your companies with:\n" +
			"<code>/my_companies</code>")
	}
	return b.String()
}

func companyListReply(companies []*models.Company) string {
	lines := make([]string, 0, len(companies)+2)
	lines = append(lines, "📋 <b>Your companies:</b>")
	for _, c := range companies {
		lines = append(lines, fmt.Sprintf("• %s (code: <code>%s</code>)", esc(c.Title), c.OfficeCode))
	}
	lines = append(lines, "\nDelete one with:\n<code>/delete_company OFFICE_CODE</code>")
	return strings.Join(lines, "\n")
}

func companyDeletedReply(company *models.Company, report models.DeleteReport) string {
	return "🗑️ Company deleted.\n\n" +
		fmt.Sprintf("🏢 <b>%s</b>\n", esc(company.Title)) +
		fmt.Sprintf("🔑 Code: <code>%s</code>\n\n", company.OfficeCode) +
		fmt.Sprintf("Removed %d employee(s) and %d job(s) linked to this company.", report.Employees, report.Jobs)
}

func joinedReply(company *models.Company, employee *models.Employee) string {
	return "✅ You're now linked to this company.\n\n" +
		fmt.Sprintf("🏢 <b>%s</b>\n", esc(company.Title)) +
		fmt.Sprintf("👷 Employee: %s\n\n", esc(employee.DisplayName)) +
		"Now just send me job requests as text (who / what / where / when), " +
		"and I'll capture them as jobs.\n\n" +
		"If you ever need to leave, use:\n" +
		"<code>/leave_company</code>"
}

func leftReply(deleted int64) string {
	head := "✅ You have left your company.\n\n"
	if deleted > 1 {
		head = fmt.Sprintf("✅ You have left %d companies.\n\n", deleted)
	}
	return head +
		"If you want to join another company later, use:\n" +
		"<code>/join_company OFFICE_CODE Your Name</code>"
}

func jobCapturedReply(job *models.Job) string {
	return "✅ Job captured!\n\n" +
		fmt.Sprintf("📋 <b>%s</b>\n", esc(job.Title)) +
		fmt.Sprintf("👤 Client: %s\n", optional(job.ClientName)) +
		fmt.Sprintf("📍 Location: %s\n", optional(job.Location)) +
		fmt.Sprintf("🗓 When: %s\n", formatWhen(job.ScheduledFor)) +
		fmt.Sprintf("💰 Budget: %s", formatBudget(job.Budget))
}

func ownerNoticeReply(job *models.Job, sender models.InboundMessage) string {
	return "📥 <b>New job added</b>\n\n" +
		fmt.Sprintf("From: %s (<code>%d</code>)\n", esc(sender.SenderName), sender.SenderID) +
		fmt.Sprintf("Client: %s\n", optional(job.ClientName)) +
		fmt.Sprintf("Job: %s\n", esc(job.Title)) +
		fmt.Sprintf("Location: %s\n", optional(job.Location)) +
		fmt.Sprintf("Budget: %s", formatBudget(job.Budget))
}
