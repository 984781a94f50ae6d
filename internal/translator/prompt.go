package translator

import (
	"fmt"

	"invosight/internal/schema"
)

// BuildTranslationPrompt renders the NL-to-SQL prompt for a question
// against a schema snapshot. The same snapshot is later used by the guard,
// so the statement is always checked against the schema it was written for.
func BuildTranslationPrompt(question string, desc *schema.Description) string {
	return fmt.Sprintf(`You translate questions about invoices into a single PostgreSQL SELECT statement.

Schema:
%s
Notes:
- invoice_items.invoice_id references invoices.id.
- Columns ending in _minor hold money as integer cents. Divide by 100.0 when the question asks for an amount.
- invoice_date and due_date are DATE columns.
- needs_review marks records awaiting human review.

Rules:
- Respond with ONLY a JSON object: {"sql": "<statement>", "confidence": <0..1>}
- The statement must be a single SELECT. Never write INSERT, UPDATE, DELETE, DROP, or any DDL.
- Use only the tables and columns listed above.
- If the question cannot be answered from this schema, set confidence to 0 and sql to an empty string.

Question: %s`, desc.PromptText(), question)
}
