package graph

const cypherSystemPrompt = "You are a Cypher expert. Return only JSON."

const cypherPromptTemplate = `Generate a Cypher query for Neo4j.

EXACT Schema:
- (t:Transaction {id, date, amount, amount_uc, currency, type})
- (a:Account {id})
- (m:Merchant {name})
- (c:Category {name})
- (Transaction)-[:MADE_AT]->(Merchant)
- (Transaction)-[:BELONGS_TO]->(Category)
- (Transaction)-[:FROM_ACCOUNT]->(Account)

Current User: Account.id = %[1]q
Currency: %[2]s

Question: %[3]s

IMPORTANT:
- To filter by user: MATCH (t:Transaction)-[:FROM_ACCOUNT]->(a:Account {id: $user_id})
- For totals use: sum(t.amount_uc)
- For Russian categories like "Еда вне дома" or "Продукты", use exact name match

Examples:
Question: compare my spending on Food vs Transport
{"cypher": "MATCH (t:Transaction)-[:FROM_ACCOUNT]->(a:Account {id: $user_id}) MATCH (t)-[:BELONGS_TO]->(c:Category) WHERE c.name IN ['Food', 'Transport'] AND t.type = 'outcome' RETURN c.name AS category, sum(t.amount_uc) AS total", "parameters": {"user_id": %[1]q}}

Question: top 5 merchants by spending
{"cypher": "MATCH (t:Transaction)-[:FROM_ACCOUNT]->(a:Account {id: $user_id}) MATCH (t)-[:MADE_AT]->(m:Merchant) WHERE t.type = 'outcome' RETURN m.name AS merchant, sum(t.amount_uc) AS total ORDER BY total DESC LIMIT 5", "parameters": {"user_id": %[1]q}}

Return ONLY valid JSON:
{
  "cypher": "MATCH ... WHERE ... RETURN ...",
  "parameters": {"user_id": %[1]q}
}`

const formatSystemPrompt = "You are a helpful financial assistant."

const formatPromptTemplate = `Convert these query results to a natural answer.

Question: %s
Results: %s

Language: %s
Currency: %s

Be concise and conversational.`

// formatTemperature leaves the model some room when phrasing result rows;
// query generation stays at zero.
const formatTemperature = 0.3
