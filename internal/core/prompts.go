package core

import (
	"fmt"
	"strings"
)

// Stage names
const (
	StageLanguage       = "language"
	StageSummary        = "summary"
	StageClassification = "classification"
	StageTone           = "tone"
	StageDraftFormal    = "draft_professional"
	StageDraftWarm      = "draft_friendly"
)

// stageParams are the fixed model settings and body excerpt size per stage
type stageParams struct {
	temperature float32
	maxTokens   int
	excerpt     int
}

var stageSettings = map[string]stageParams{
	StageLanguage:       {temperature: 0.1, maxTokens: 10, excerpt: 500},
	StageSummary:        {temperature: 0.3, maxTokens: 250, excerpt: 2000},
	StageClassification: {temperature: 0.2, maxTokens: 150, excerpt: 1500},
	StageTone:           {temperature: 0.1, maxTokens: 10, excerpt: 1000},
	StageDraftFormal:    {temperature: 0.5, maxTokens: 500, excerpt: 2000},
	StageDraftWarm:      {temperature: 0.6, maxTokens: 500, excerpt: 2000},
}

const languagePrompt = `Detect the primary language of this email content.
Respond with only the language name in English (e.g., "English", "Spanish", "French", "German", "Chinese", "Arabic", etc.).

Email content:
%s

Language:`

const summaryPrompt = `You are an expert email analyst for business operations.
Create a professional, concise summary of this email for management dashboard review.

Requirements:
- Write the summary in %s
- Keep it 2-4 sentences maximum
- Focus on key action items, requests, or important information
- Be clear and business-focused
- Include sender context if relevant for business decisions

Email Subject: %s
Email Content:
---
%s
---

Professional Summary:`

const classificationPrompt = `You are an email classification system. Analyze this business email and identify ALL applicable command categories.

COMMAND TAXONOMY:
%s

CLASSIFICATION RULES:
1. Return a list of quoted strings: ["command1", "command2", ...]
2. Only use commands from the provided taxonomy
3. Include ALL relevant commands (multiple commands are common)
4. For system notifications/newsletters: ["spam_detected"] or ["no_action"]
5. For complex requests needing human review: include "requires_human_review"
6. Prioritize the most specific applicable commands

Email Language: %s
Subject: "%s"
Summary: "%s"

Body Preview:
%s

Classification Result:`

const tonePrompt = `Analyze the emotional tone of this %s business email.
Choose exactly ONE tone from: positive, neutral, negative, urgent, confused

Consider:
- Overall sentiment and emotional indicators
- Language formality and politeness
- Urgency markers and escalation language
- Customer satisfaction signals

Email content:
%s

Tone (one word only):`

const draftPrompt = `You are a professional email response assistant.
Generate a helpful, accurate, and contextually appropriate business reply.

CONTEXT:
- Sender: %s
- Original Subject: %s
- Detected Language: %s
- Business Commands: %s

REPLY GUIDELINES:
1. Write in %s
2. Address all key points from the original email
3. Be professional yet personable
4. Provide specific next steps when applicable
5. Include appropriate contact information or escalation paths
6. Keep response length appropriate (3-8 sentences typically)
7. Use proper business email formatting

Original Email:
---
%s
---

Tone: %s

Reply:`

const (
	formalDirective = "Professional and formal. Focus on clarity and efficiency."
	warmDirective   = "Warm and collaborative. Show empathy and partnership."
)

func newStageSpec(name, prompt string) StageSpec {
	p := stageSettings[name]
	return StageSpec{
		Name:        name,
		Prompt:      prompt,
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	}
}

func joinCommands(cmds []Command) string {
	parts := make([]string, len(cmds))
	for i, c := range cmds {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}

func (a *EmailAnalyzer) excerpt(stage, body string) string {
	return a.textProcessor.Excerpt(body, stageSettings[stage].excerpt)
}

func (a *EmailAnalyzer) languageSpec(r *EmailRecord) StageSpec {
	return newStageSpec(StageLanguage,
		fmt.Sprintf(languagePrompt, a.excerpt(StageLanguage, r.Body)))
}

func (a *EmailAnalyzer) summarySpec(r *EmailRecord) StageSpec {
	return newStageSpec(StageSummary,
		fmt.Sprintf(summaryPrompt, r.DetectedLanguage, r.Subject, a.excerpt(StageSummary, r.Body)))
}

func (a *EmailAnalyzer) classificationSpec(r *EmailRecord) StageSpec {
	return newStageSpec(StageClassification,
		fmt.Sprintf(classificationPrompt,
			joinCommands(a.taxonomy.Commands()),
			r.DetectedLanguage, r.Subject, r.Summary,
			a.excerpt(StageClassification, r.Body)))
}

func (a *EmailAnalyzer) toneSpec(r *EmailRecord) StageSpec {
	return newStageSpec(StageTone,
		fmt.Sprintf(tonePrompt, r.DetectedLanguage, a.excerpt(StageTone, r.Body)))
}

func (a *EmailAnalyzer) draftSpec(stage string, r *EmailRecord, directive string) StageSpec {
	return newStageSpec(stage,
		fmt.Sprintf(draftPrompt,
			r.Sender, r.Subject, r.DetectedLanguage, joinCommands(r.DetectedCommands),
			r.DetectedLanguage, a.excerpt(stage, r.Body), directive))
}
