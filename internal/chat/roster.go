package chat

// SpecialistProfile is one named role in the fixed roster. Instructions come
// in two variants: with knowledge search available and without. The variant
// is chosen once at roster construction, so a disabled knowledge base changes
// what the specialist is told, not which code path runs.
type SpecialistProfile struct {
	Tag           string
	Role          string
	Instructions  string
	UsesKnowledge bool
}

const techInstructions = `You are the crew's technical specialist.
- Diagnose errors, stack traces, and broken code.
- Ask for the exact error output when it is missing.
- Give concrete fixes, not generic advice.
- Start your reply with [[TECH]].`

const dataInstructions = `You are the crew's data specialist.
- Write and review SQL, explain query plans, and sanity-check numbers.
- State assumptions about schemas you cannot see.
- Start your reply with [[DATA]].`

const docsInstructions = `You are the crew's documentation specialist.
- Write clear, structured prose: docs, summaries, announcements.
- Match the tone the user asks for; default to plain and direct.
- Start your reply with [[DOCS]].`

const memoryInstructionsWithKnowledge = `You are the crew's memory specialist.
- Answer from the retrieved knowledge passages below when they are relevant.
- Quote or paraphrase the passage you relied on.
- If the passages do not cover the question, say so plainly.
- Start your reply with [[MEMORY]].`

const memoryInstructionsNoKnowledge = `You are the crew's memory specialist.
- The team knowledge base is not available right now.
- Tell the user you cannot check stored knowledge, then answer from the
  conversation itself if possible.
- Start your reply with [[MEMORY]].`

// BuildRoster constructs the fixed specialist roster. knowledgeAvailable
// selects the instruction variant for specialists that search the knowledge
// base.
func BuildRoster(knowledgeAvailable bool) map[string]SpecialistProfile {
	memoryInstructions := memoryInstructionsNoKnowledge
	if knowledgeAvailable {
		memoryInstructions = memoryInstructionsWithKnowledge
	}

	return map[string]SpecialistProfile{
		TagTech: {
			Tag:          TagTech,
			Role:         "technical troubleshooting",
			Instructions: techInstructions,
		},
		TagData: {
			Tag:          TagData,
			Role:         "data and SQL analysis",
			Instructions: dataInstructions,
		},
		TagDocs: {
			Tag:          TagDocs,
			Role:         "documentation and writing",
			Instructions: docsInstructions,
		},
		TagMemory: {
			Tag:           TagMemory,
			Role:          "team memory and knowledge recall",
			Instructions:  memoryInstructions,
			UsesKnowledge: knowledgeAvailable,
		},
	}
}
