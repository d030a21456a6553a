package driven

// Prompt names. A store must know both.
const (
	// PromptQueryRewrite turns a question into search terms. The template
	// may contain one %s for the question; without it the question is
	// appended.
	PromptQueryRewrite = "query_rewrite"

	// PromptAnswerSystem tells the model how to cite the numbered context
	// documents. It is used verbatim.
	PromptAnswerSystem = "answer_system"
)

// PromptStore serves prompt templates by name.
type PromptStore interface {
	// Load returns the current template for name, falling back to a
	// built-in default where one exists.
	Load(name string) (string, error)

	// Reload forgets cached templates.
	Reload()
}

// PromptStoreAware is implemented by LLM adapters that accept a PromptStore
// after construction. Until one is set they use their built-in prompts.
type PromptStoreAware interface {
	SetPromptStore(store PromptStore)
}
