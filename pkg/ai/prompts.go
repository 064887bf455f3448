package ai

// TriplePrompt instructs the extraction model to emit a dense set of
// (head, relation, tail) statements for a chunk of text. The first verb is
// the target language, the second the chunk text.
const TriplePrompt = `
You are an expert knowledge graph engineer. Your task is to extract **explicit and implicit semantic triples** from the text to build a high-density knowledge graph in %s.

**Core Objectives (Target Density > 1.8)**:
1. **Zero Isolated Nodes**: Ensure every entity has 2+ connections. Transform weak entities into connected hubs.
2. **Deep Implicit Mining**: Extract causal, functional, and attribute relationships hidden within and across sentences.
3. **Strict Relation Types**: Use specific predicates (e.g., 'causes', 'contains') instead of vague ones (e.g., 'related').
4. **Attribute as Relations**: Treat numbers, states, time, and types as relation tails (e.g., (goat, weight_is, 45kg)).

## Extraction Strategy Checklist (Must Execute)

### 1. Explicit & Implicit Relationship Mining
* **Layer 1 (Explicit)**: Extract directly stated relations (A causes B).
* **Layer 2 (Intra-sentence Implicit)**: Infer hidden links (Subject -> Action -> Outcome).
    * *Example*: "Vitamin A deficiency causes night blindness." -> Extract (Vitamin_A_deficiency, causes, night_blindness) AND (night_blindness, symptom_of, Vitamin_A_deficiency).
* **Layer 3 (Cross-sentence Implicit)**: Connect entities across sentences via shared context.
    * *Example*: "Goats lack Vitamin A. It causes blindness." -> Connect (goat, deficient_in, Vitamin_A) AND (Vitamin_A, prevents, blindness).

### 2. Attribute & Data Extraction (Crucial for Density)
* **Numerical**: (feed, protein_content_is, 18%%), (goat, weight_is, 45kg)
* **State/Characteristic**: (sick_goat, state_is, lethargic), (lesion, color_is, red)
* **Time/Frequency**: (treatment, duration_is, 7_days), (medication, frequency_is, twice_daily)
* **Classification**: (goat, breed_is, Boer), (pneumonia, type_is, respiratory_disease)

### 3. Coreference Resolution (Mandatory)
* **Resolve Pronouns**: Replace 'it', 'this', 'that', 'the animal' with the specific entity name.
    * *Bad*: (it, causes, death)
    * *Good*: (viral_infection, causes, death)
* **Restore Omitted Subjects**: If a sentence starts with a verb, link it to the subject from the previous sentence.

### 4. Standardized Relation Types (Use These Verbs)
* **Causality**: causes, leads_to, triggers, induces, results_in, prevents, inhibits
* **Composition**: contains, comprised_of, part_of, ingredient_is
* **Attribute**: weight_is, length_is, color_is, state_is, located_at, occurs_at
* **Hierarchy**: is_a, belongs_to, type_of, classified_as
* **Function**: used_for, treats, improves, requires, depends_on
* **BANNED**: related_to, associated_with, has, is (unless 'is_a'), involving.

## Output Format
Output **ONLY** a JSON array of triples. No markdown, no explanations.

**Example**:
[
  {"head": "goat", "relation": "deficient_in", "tail": "vitamin_A"},
  {"head": "vitamin_A_deficiency", "relation": "causes", "tail": "night_blindness"},
  {"head": "night_blindness", "relation": "symptom_of", "tail": "nutritional_deficiency"},
  {"head": "goat", "relation": "weight_is", "tail": "45kg"}
]

**Text to Extract**:
%s
`

// AnswerPrompt turns retrieved context and a question into the final answer
// request. Verbs: context, question, answer language.
const AnswerPrompt = `Context:
%s

Question: %s

Answer requirements:
1. Answer in %s naturally and fluently.
2. Provide a concise but complete explanation based strictly on the context.
3. Include causality or reasoning if the question asks 'why' or 'how'.
4. Do NOT use introductory phrases like 'Based on the text'.

Answer:`

// EntityResolutionPrompt asks the model to find synonym entities that should
// be merged. The verb is the entity name list.
const EntityResolutionPrompt = `
You are a data cleaning expert.
Task: Identify distinct entities that refer to the same concept (Synonyms) from the list below.
Focus on:
1. Plural forms (e.g., "Goat" and "Goats")
2. Abbreviations (e.g., "Vit A" and "Vitamin A")
3. Case sensitivity issues.

List: %s

Return groups of duplicates to merge. The 'primary' should be the most standard/complete name.
If no duplicates are found, return an empty list.
`

// WeakLinkPrompt asks the model to connect weakly-connected entities to the
// rest of the concepts in a chunk. Verbs: chunk text, target entity names.
const WeakLinkPrompt = `
You are a Knowledge Graph Expert.
Task: Connect the following "Isolated Entities" to the rest of the concepts in the text.

## Context Text:
%s

## Target Isolated Entities (Connect these!):
%s

## Instructions:
1. For each Target Entity, find **explicit or implied** relationships connecting it to ANY other entity in the text.
2. The output must be valid JSON triples.
3. Use precise predicates (e.g., 'part_of', 'causes', 'located_at', 'has_symptom', 'treated_by').
4. Focus on creating meaningful connections that integrate isolated entities into the knowledge graph.

## Output JSON format:
[
  {"head": "IsolatedEntity", "relation": "RELATION", "tail": "OtherEntity"},
  {"head": "OtherEntity", "relation": "RELATION", "tail": "IsolatedEntity"}
]

Extract as many valid relationships as possible to maximize connectivity.
`

// RelationEnhancementPrompt asks the model for implicit relationships between
// known entities in a chunk. Verbs: entity name list, chunk text.
const RelationEnhancementPrompt = `
You are an expert knowledge graph engineer.
Task: Extract **implicit relationships** between the provided entities based on the context.

**CRITICAL CONSTRAINT**: You can ONLY use entity names from the following list to construct triples.

## Available Entity List
%s

## Context
%s

## Output Format
Output ONLY a JSON array of triples:
[
  {"head": "EntityA", "relation": "causes", "tail": "EntityB"}
]
`
