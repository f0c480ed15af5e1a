package llm

import "fmt"

// Operation — вид операции обработки текста.
type Operation string

// Поддерживаемые операции.
const (
	OpSummarize Operation = "summarize"
	OpRephrase  Operation = "rephrase"
	OpAnalyze   Operation = "analyze"
	OpQuestions Operation = "questions"
	OpExpand    Operation = "expand"
)

// Operations возвращает список поддерживаемых операций.
func Operations() []Operation {
	return []Operation{OpSummarize, OpRephrase, OpAnalyze, OpQuestions, OpExpand}
}

// Valid проверяет, что операция поддерживается.
func (op Operation) Valid() bool {
	switch op {
	case OpSummarize, OpRephrase, OpAnalyze, OpQuestions, OpExpand:
		return true
	default:
		return false
	}
}

// systemPrompt — единая системная инструкция для всех операций.
const systemPrompt = "You are a helpful assistant that processes text according to user instructions. Be concise and clear in your responses."

// prompts — шаблоны по операциям. Вид операции — непрозрачный enum:
// один вид на вызов, маршрутизация единообразная.
var prompts = map[Operation]string{
	OpSummarize: "Please provide a concise summary of the following text:\n\n%s",
	OpRephrase:  "Please rephrase the following text in a different way while maintaining the same meaning:\n\n%s",
	OpAnalyze:   "Please analyze the sentiment and key themes in the following text:\n\n%s",
	OpQuestions: "Generate 3 insightful questions based on the following text:\n\n%s",
	OpExpand:    "Please expand on the following text with additional relevant details:\n\n%s",
}

// Prompt строит текст запроса для операции.
// Неизвестная операция откатывается на summarize.
func Prompt(op Operation, text string) string {
	tpl, ok := prompts[op]
	if !ok {
		tpl = prompts[OpSummarize]
	}
	return fmt.Sprintf(tpl, text)
}
