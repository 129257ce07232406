// Package prompt renders the fixed templates sent to the model: the system
// prompt that frames the translation task and the two corrective follow-ups
// used by the repair loop.
package prompt

import (
	"fmt"
	"strings"
)

const systemTemplate = `You are an assistant that translates natural language to SQL queries.
Your task is to generate syntactically correct SQL queries based on the user's natural language requests and the provided database schema information.

When generating SQL queries, ensure that you:
1. Use the correct table and column names as provided in the schema.
2. Adhere to SQL syntax rules and conventions.
3. Avoid using any proprietary or non-standard SQL features.
4. Do not include explanations or additional text; provide only the SQL query.
5. Do not apologize.

Always prioritize accuracy and clarity in your SQL query generation.

##
%s

%s

## Output only the SQL query without any additional text.
`

const errorCorrectiveTemplate = `The SQL query generated from your request resulted in an error when executed against the database.
Here's the error message provided by the database:

%s

Please review the natural language text query again to address the issues described above and avoid technical terms or database-specific jargon that might have caused the error. Here's the original query for your reference:

%s

Adjust the query so it conforms to the database schema.
`

const emptyCorrectiveTemplate = `The SQL query executed successfully but returned no results. This could happen for several reasons, such as filtering criteria being too restrictive or querying data that doesn't exist.

Please review the natural language text query and consider adjusting it to broaden the search criteria or correct any inaccuracies. Here's your original prompt for reference:

%s

Additionally, ensure the query aligns with the available data as described in the database schemas below:

%s
`

// System renders the system prompt. Every schema text appears in retrieval
// order; none are dropped.
func System(schemas []string, context string) string {
	return fmt.Sprintf(systemTemplate, strings.Join(schemas, "\n\n"), context)
}

// ErrorCorrective embeds the driver's error text verbatim. Paraphrasing it
// would starve the model of the exact diagnostic it needs.
func ErrorCorrective(errText, question string) string {
	return fmt.Sprintf(errorCorrectiveTemplate, errText, question)
}

// EmptyCorrective asks the model to broaden the query, restating the full
// original schema set.
func EmptyCorrective(question string, schemas []string) string {
	return fmt.Sprintf(emptyCorrectiveTemplate, question, strings.Join(schemas, "\n\n"))
}
