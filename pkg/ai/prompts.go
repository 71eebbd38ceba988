package ai

// DefaultInstructions are the extraction instructions used when the caller
// provides none.
const DefaultInstructions = `Extract meaningful relationships from the text while maintaining context:
For each entity (node):
1. Identify its main type/category
2. Include relevant properties (name, date, description)
3. Preserve any unique identifiers or key characteristics
For each relationship:
1. Specify the nature of the connection
2. Include temporal context when available
3. Add relevant details about the interaction
4. Preserve any contextual information about impact or significance
Focus on creating a comprehensive and interconnected knowledge graph while maintaining accuracy and context.`

// ExtractPrompt is the system prompt for graph extraction. The single
// placeholder takes the caller's instructions.
const ExtractPrompt = `
# Task Context
You are a top-tier algorithm designed for extracting information in structured formats to build a knowledge graph. Capture as much information from the text as possible without sacrificing accuracy. Do not add any information that is not explicitly mentioned in the text.

# Detailed Task Description & Rules
## Nodes
- Nodes represent entities and concepts, for example people, organizations, places, events or products.
- **id:** the name of the entity as it is written in the text, human readable. Never use integers as ids.
- **type:** a basic, elementary label for the node in PascalCase, e.g. "Person" instead of "Mathematician". Use the same type for entities of the same kind.
- **properties:** additional attributes as key/value pairs, e.g. a date or a short description. Values are plain strings.

## Relationships
- Relationships connect exactly two nodes that appear in the nodes list.
- **source_node_id / target_node_id:** the ids of the connected nodes, as used in the nodes list.
- **source_node_type / target_node_type:** the types of the connected nodes.
- **type:** a general, timeless relationship type in UPPER_SNAKE_CASE, e.g. "WORKS_AT" instead of "BECAME_PROFESSOR".
- **properties:** additional details as key/value pairs, e.g. temporal context or significance.

## Coreference Resolution
If an entity is mentioned by different names or pronouns (e.g. "John Doe", "Joe", "he"), always use the most complete identifier for that entity throughout the graph.

# Additional Instructions
%s

# Output Formatting
Return a single JSON object with "nodes" and "relationships" arrays. Use empty arrays if nothing can be extracted. Do not include any commentary outside of the JSON.
`

// ExtractUserPrompt wraps the chunk text sent with ExtractPrompt.
const ExtractUserPrompt = `Tip: Make sure to answer in the correct format and do not include any explanations. Use the given format to extract information from the following input:

%s`
