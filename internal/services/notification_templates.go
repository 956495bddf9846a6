package services

import (
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

// TemplateID names one of the portal's email templates.
type TemplateID string

const (
	TemplateWelcome             TemplateID = "welcome"
	TemplateProposalStatus      TemplateID = "proposal_status"
	TemplateFeedback            TemplateID = "feedback"
	TemplateStaffAssignment     TemplateID = "staff_assignment"
	TemplateCollaborationInvite TemplateID = "collaboration_invite"
	TemplateAssignmentReminder  TemplateID = "assignment_reminder"
)

var templateFuncs = map[string]interface{}{
	"upper":  strings.ToUpper,
	"status": humanStatus,
}

// humanStatus turns "needs_revision" into "NEEDS REVISION".
func humanStatus(s string) string {
	return strings.ToUpper(strings.ReplaceAll(s, "_", " "))
}

const layoutHTML = `{{define "layout"}}<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto;">
<div style="background: #1e3a8a; color: #fff; padding: 20px; text-align: center;"><h1>{{template "heading" .}}</h1></div>
<div style="padding: 20px;">
{{template "content" .}}
<p>Best regards,<br><strong>NaCCER Portal Team</strong></p>
</div>
<div style="font-size: 12px; color: #666; text-align: center;">
<p>National Centre for Clean Energy Research. This is an automated email, please do not reply.</p>
</div>
</body>
</html>{{end}}`

var subjectSources = map[TemplateID]string{
	TemplateWelcome:             `Welcome to NaCCER Portal!`,
	TemplateProposalStatus:      `Proposal Status Update: {{.ProposalTitle}}`,
	TemplateFeedback:            `New Feedback: {{.ProposalTitle}}`,
	TemplateStaffAssignment:     `New Project Assignment: {{.ProposalTitle}}`,
	TemplateCollaborationInvite: `Collaboration invitation: {{.ProposalTitle}}`,
	TemplateAssignmentReminder:  `Reminder: review due for {{.ProposalTitle}}`,
}

var bodySources = map[TemplateID]string{
	TemplateWelcome: `{{define "heading"}}Welcome to NaCCER Portal!{{end}}
{{define "content"}}<h2>Hello {{.Name}}!</h2>
<p>Welcome to the <strong>National Centre for Clean Energy Research (NaCCER) Portal</strong>.</p>
<p>Your account has been created with the role: <strong>{{upper .Role}}</strong></p>
<h3>Get started</h3>
<ul>
{{if eq .Role "reviewer"}}<li>Review submitted proposals</li><li>Assign staff members to projects</li><li>Provide feedback to researchers</li>
{{else if eq .Role "staff"}}<li>Work on assigned research projects</li><li>Submit progress reports</li><li>Collaborate with reviewers and researchers</li>
{{else}}<li>Create and submit your research proposals</li><li>Track the progress of your submissions</li><li>Collaborate with reviewers and staff</li>
{{end}}</ul>
<p><a href="{{.ClientURL}}/login">Login to Portal</a></p>{{end}}`,

	TemplateProposalStatus: `{{define "heading"}}Proposal Status Update{{end}}
{{define "content"}}<h2>Hello {{.Name}}!</h2>
<p>We have an update on your research proposal <strong>{{.ProposalTitle}}</strong>.</p>
<p><strong>Status changed:</strong> {{status .OldStatus}} &rarr; {{status .NewStatus}}</p>
<p><strong>Updated by:</strong> {{.ReviewerName}}</p>
{{if .Comment}}<h4>Reviewer comments</h4><p>{{.Comment}}</p>{{end}}
<p><a href="{{.ClientURL}}/dashboard">View in Dashboard</a></p>{{end}}`,

	TemplateFeedback: `{{define "heading"}}New Feedback Received{{end}}
{{define "content"}}<h2>Hello {{.Name}}!</h2>
<p>You have received new feedback on <strong>{{.ProposalTitle}}</strong>.</p>
<p><strong>Feedback from:</strong> {{.ReviewerName}}</p>
<blockquote>{{.Message}}</blockquote>
<p><a href="{{.ClientURL}}/dashboard">View Full Feedback</a></p>{{end}}`,

	TemplateStaffAssignment: `{{define "heading"}}New Project Assignment{{end}}
{{define "content"}}<h2>Hello {{.Name}}!</h2>
<p>You have been assigned to work on <strong>{{.ProposalTitle}}</strong>.</p>
<p><strong>Project author:</strong> {{.AuthorName}}</p>
<p><strong>Assigned by:</strong> {{.ReviewerName}}</p>
{{if .DueDate}}<p><strong>Due date:</strong> {{.DueDate}}</p>{{end}}
<p><a href="{{.ClientURL}}/dashboard">Open Assignment</a></p>{{end}}`,

	TemplateCollaborationInvite: `{{define "heading"}}Collaboration Invitation{{end}}
{{define "content"}}<h2>Hello!</h2>
<p><strong>{{.InviterName}}</strong> has invited you to collaborate on the research proposal <strong>{{.ProposalTitle}}</strong> as <strong>{{.Role}}</strong>.</p>
{{if .Message}}<blockquote>{{.Message}}</blockquote>{{end}}
<p><a href="{{.ClientURL}}/register">Join NaCCER Portal</a></p>{{end}}`,

	TemplateAssignmentReminder: `{{define "heading"}}Review Reminder{{end}}
{{define "content"}}<h2>Hello {{.Name}}!</h2>
<p>Your review of <strong>{{.ProposalTitle}}</strong> is due on <strong>{{.DueDate}}</strong>.</p>
<p><a href="{{.ClientURL}}/dashboard">Open Assignment</a></p>{{end}}`,
}

type emailTemplate struct {
	subject *texttemplate.Template
	body    *htmltemplate.Template
}

func parseTemplates() map[TemplateID]*emailTemplate {
	out := make(map[TemplateID]*emailTemplate, len(bodySources))
	for id, src := range bodySources {
		body := htmltemplate.Must(htmltemplate.New(string(id)).Funcs(templateFuncs).Parse(layoutHTML))
		htmltemplate.Must(body.Parse(src))
		out[id] = &emailTemplate{
			subject: texttemplate.Must(texttemplate.New(string(id)).Parse(subjectSources[id])),
			body:    body,
		}
	}
	return out
}
