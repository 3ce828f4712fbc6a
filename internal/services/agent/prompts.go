package agent

// Prompt templates for the router state machine. Each has a config
// override; the defaults below are used when the override is empty.

const ragSystemBase = `You are an expert assistant for Copernicus Sentinel Missions documentation (SentiWiki).
Answer questions based on the provided context from SentiWiki documentation.

IMPORTANT: Always attempt to answer the question using the provided context. The context documents have been retrieved as potentially relevant to the question. Even if the relevance is not perfect, extract and synthesize information from the context to provide the best possible answer.

Only say you couldn't find information if the context is completely unrelated to the question. Otherwise, use the context to provide a helpful answer, even if it's partial or requires inference.

Format your response in a clear and structured way. Be precise and factual. When referencing specific Sentinel missions, always include the mission identifier (e.g., Sentinel-1, Sentinel-2, Sentinel-3, Sentinel-5P).

Context:
%s`

const ragComparativeInstruction = `

IMPORTANT: The context contains information from multiple Sentinel missions (%s).
- If the question is generic (doesn't specify a mission), provide a COMPARATIVE response that distinguishes between the different missions.
- Example: "Sentinel-1 uses SAR imaging, while Sentinel-2 uses multi-spectral optical imaging."
- Do NOT assume a single mission unless the question explicitly mentions one.
- Clearly label which information belongs to which mission.`

const defaultDecompositionPrompt = `You are an expert query decomposer for Copernicus Sentinel Missions documentation.
Your task is to break down complex questions into a list of simple, independent search queries.

RULES - Decompose if the question:
1. Explicitly compares two or more topics (e.g., 'Sentinel-1 vs Sentinel-2', 'Which is better')
2. Asks about capabilities/techniques applied to a mission (e.g., 'Can I do InSAR with Sentinel-2?' needs info about BOTH InSAR requirements AND Sentinel-2 sensor type)
3. Mentions a technique/method AND a mission where you need to understand both separately
4. Asks about compatibility between a technique and a mission
5. Asks for multiple distinct pieces of information about different entities or concepts

DO NOT decompose if the question is simple and focuses on a single topic/entity.

Examples:
- 'What is Sentinel-1?' → ['What is Sentinel-1?']
- 'Which has wider swath: Sentinel-1 IW or Sentinel-2?' → ['Sentinel-1 IW swath width', 'Sentinel-2 swath width']
- 'Compare Sentinel-1 and Sentinel-2' → ['Sentinel-1 specifications', 'Sentinel-2 specifications']
- 'Can I do InSAR with Sentinel-2?' → ['InSAR sensor requirements', 'Sentinel-2 sensor type']

User Question: %s

Respond ONLY with a JSON list of strings. Example: ["query 1", "query 2"]`

const defaultRewritePrompt = `You are a question rewriting assistant. Your task is to improve a user question for better document retrieval.
The original question did not retrieve relevant documents. Rewrite it to be more specific, include relevant keywords, and clarify the intent.

Original question:
-------
%s
-------
%sFormulate an improved question. Respond with ONLY the improved question, no prefixes or explanations:`

const defaultDirectSystemPrompt = "You are a helpful AI assistant for Copernicus Sentinel Missions documentation (SentiWiki)."

// noContextAnswer is returned without a completion call when the RAG path
// ends with zero usable documents.
const noContextAnswer = "I couldn't find relevant information in the SentiWiki documentation to answer your question. Please try rephrasing your question or being more specific."

// sentinelKeywords drives the fallback router used when no router prompt
// is configured. A query containing any keyword routes to RAG.
var sentinelKeywords = []string{
	"sentinel", "sentiwiki", "copernicus",
	"s1", "s2", "s3", "s5p",
	"sar", "olci", "slstr",
	"mission", "product", "application", "processing",
}
