// Package prompt holds the editorial prompt library: the memo section
// vocabulary and the system prompts for the per-model edit pass and the
// synthesis pass. The pipeline treats all of it as injected configuration;
// nothing here is consulted as ambient state.
package prompt

import "strings"

// sectionPlaceholder is replaced with the memo section name when a
// template is rendered.
const sectionPlaceholder = "{section}"

// Sections lists the memo section names the default library carries
// guidance for.
var Sections = []string{
	"Customer Discovery",
	"Product and Technology",
	"Market Research",
	"Competitor Analysis",
	"GTM and Partners",
	"Revenue Model",
	"Operating Metrics",
	"Financial Modelling",
	"Team and Talents",
	"Legal and IP",
}

// Library bundles the prompt templates for one pipeline configuration.
// Templates may contain the {section} placeholder.
type Library struct {
	// Editor is the base system prompt for the per-model edit pass.
	Editor string
	// Guidance maps a section name to extra editing guidance appended to
	// the editor prompt. Sections without an entry use the base prompt alone.
	Guidance map[string]string
	// Synthesis is the system prompt for the consolidation pass.
	Synthesis string
}

// Default returns the built-in library.
func Default() *Library {
	return &Library{
		Editor:    baseEditorPrompt,
		Guidance:  sectionGuidance,
		Synthesis: synthesisPrompt,
	}
}

// EditorSystemPrompt renders the per-model system prompt for a section.
func (l *Library) EditorSystemPrompt(section string) string {
	p := strings.ReplaceAll(l.Editor, sectionPlaceholder, section)
	if g, ok := l.Guidance[section]; ok {
		p += "\n\n" + strings.TrimSpace(g)
	}
	return p
}

// SynthesisSystemPrompt renders the consolidation system prompt for a section.
func (l *Library) SynthesisSystemPrompt(section string) string {
	return strings.ReplaceAll(l.Synthesis, sectionPlaceholder, section)
}

const baseEditorPrompt = `You are an expert editor for venture capital investment memos. Your task is to edit the provided markdown text to make it more succinct and readable, similar to what you would read at top VC firms like Sequoia or A16Z.

This text is a SECTION from a market report, specifically the {section} section. Your task is to edit it to be an excellent {section} SECTION of a venture capital memo, not a complete memo itself.

Focus on:
1. Removing unnecessary details while preserving key insights
2. Sharpening the analysis and reasoning
3. Improving clarity and readability
4. Maintaining a professional and analytical tone
5. Highlighting the most important information for investment decisions
6. Following the style and format appropriate for a {section} section

The goal is to transform verbose content into a clear, compelling, and concise {section} section of an investment analysis.`

const synthesisPrompt = `You are a master editor for venture capital investment memos. You have been given different edited versions of the same investment memo section, each edited by a different AI assistant.

The original text is a SECTION from a market report, specifically the {section} section. Your task is to create a final, optimal version that works as an excellent {section} SECTION of a venture capital memo, not a complete memo itself.

Your task is to create a final, optimal version that:
1. Incorporates the best edits and insights from all versions
2. Prioritizes edits that multiple assistants agreed on
3. Creates the most concise, clear, and compelling {section} section possible
4. Follows the style and format of top-tier VC firms like Sequoia or A16Z
5. Focuses specifically on what makes an excellent {section} section

Structure your reply exactly as:

<<<FINAL_SECTION>>>
<the polished section text>
<<<EDITOR_NOTES>>>
<two or three sentences on which edits you kept and why>`

var sectionGuidance = map[string]string{
	"Customer Discovery": `
For a Customer Discovery section, focus on:
- Clearly articulating the target customer segments and their pain points
- Highlighting key customer interview insights and validation points
- Emphasizing product-market fit evidence
- Including relevant customer quotes or testimonials (if available)
- Presenting a clear narrative about how customer needs align with the solution`,
	"Product and Technology": `
For a Product and Technology section, focus on:
- Clearly explaining the core technology or product without technical jargon
- Highlighting key technological advantages or innovations
- Explaining technical moats or barriers to entry
- Addressing the product roadmap and future development in a concise manner
- Connecting technical capabilities to market needs`,
	"Market Research": `
For a Market Research section, focus on:
- Presenting key market size metrics (TAM, SAM, SOM) with credible sources
- Highlighting the most relevant market trends and growth drivers
- Including only the most meaningful market statistics
- Articulating why this market timing is right for this investment
- Providing clear, data-backed market insights`,
	"Competitor Analysis": `
For a Competitor Analysis section, focus on:
- Creating a clear competitive landscape overview
- Highlighting key competitive advantages and differentiation
- Identifying the most relevant direct and indirect competitors
- Analyzing competitive moats and barriers to entry
- Presenting an honest assessment of competitive threats`,
	"GTM and Partners": `
For a GTM and Partners section, focus on:
- Outlining a clear, executable go-to-market strategy
- Highlighting key channel strategies and partnership opportunities
- Identifying the most strategic partnerships and their value
- Presenting realistic customer acquisition strategies
- Outlining sales cycle and key conversion metrics`,
	"Revenue Model": `
For a Revenue Model section, focus on:
- Clearly articulating the primary revenue streams
- Highlighting unit economics and pricing strategy
- Including key metrics like LTV, CAC, and payback period
- Presenting a clear path to scalable revenue
- Addressing revenue risks and mitigations`,
	"Operating Metrics": `
For an Operating Metrics section, focus on:
- Highlighting the most critical KPIs for this specific business
- Presenting clear, data-driven operational benchmarks
- Including only the most meaningful operational metrics
- Connecting metrics to business success and investor returns
- Providing context for how metrics compare to industry standards`,
	"Financial Modelling": `
For a Financial Modelling section, focus on:
- Presenting clear financial projections with key assumptions
- Highlighting the path to profitability with realistic milestones
- Including cash flow considerations and capital efficiency
- Addressing key financial risks and sensitivities
- Focusing on the most meaningful financial metrics for this business model`,
	"Team and Talents": `
For a Team and Talents section, focus on:
- Highlighting founders' and key team members' relevant expertise and track record
- Identifying critical skill gaps and hiring priorities
- Presenting team structure and organizational design
- Emphasizing team members' unique qualifications for this specific venture
- Addressing team risk factors and mitigations`,
	"Legal and IP": `
For a Legal and IP section, focus on:
- Clearly articulating key IP assets and protection strategies
- Highlighting regulatory considerations and compliance approaches
- Identifying critical legal risks and mitigations
- Presenting the IP competitive advantage clearly
- Addressing legal structure and governance`,
}
