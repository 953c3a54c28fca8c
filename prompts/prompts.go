// Package prompts holds the instruction templates sent to the text-generation
// model. These are the full contract with the model: scoring rules, output
// shapes, and classification guides live here, not in code.
package prompts

import "fmt"

// AnalyzePost asks the model for a focused analysis of the posts most
// relevant to a query.
func AnalyzePost(query, posts string) string {
	return fmt.Sprintf(`
Based on the question: "%s"
Analyze these relevant data posts: "%s"

Provide a focused analysis in the following format:

### 1. Direct Query Response
- Provide the most direct and relevant answer to the query
- Include only facts that are directly related to the main query
- Note the confidence level of the information (High/Medium/Low)
- Keep this section focused on core facts only

### 2. Key Information
- **Core Details**:
  List only verified details directly related to the query (dates, numbers, requirements)
- **Key Stakeholders**:
  List only organizations/entities directly involved

### 3. Additional Context & Insights
- Note any missing but important information
- List only directly related action items
- Do not include speculative information
- Do not mix information from unrelated events

Important Guidelines:
- Bold all dates, numbers, and deadlines using **text**
- Keep each bullet point focused on a single piece of information
- Maintain clear separation between sections with line breaks
- Only include information that is directly related to the query
- Exclude information from similar but different events
- If information seems related but you're not sure, mention it in a 'Note:' at the end
`, query, posts)
}

// EvaluateSubmission scores a submission against the bounty criteria. The
// model must return a fenced JSON object; the caller enforces the final
// qualification threshold independently of the model's own verdict.
func EvaluateSubmission(allPostsContent, submission, criteriaJSON string) string {
	return fmt.Sprintf(`
# Automated submission evaluation

## Task
Analyze and score the submitted data against the provided criteria to decide
whether the submission qualifies for the bounty.

## Input
- **allPostsContent**: all existing posts/content in the system, for comparison and reference
- **submitData**: the user-submitted data to be evaluated
- **criteria**: the list of evaluation criteria

## Requirements
1. **Detailed analysis**:
   - Compare submitData with allPostsContent to assess originality
   - Assess how well each criterion in criteria is met
   - Flag any data-quality problems or criteria violations

2. **Scoring**:
   - Score each criterion individually on a 0-10 scale
   - Compute a weighted overall score
   - If the submission is completely unrelated to the criteria, the overall score must be below 3/10
   - If the submission is only a short sentence with no technical content, the overall score must be below 2/10

3. **Detailed feedback**:
   - Give concrete comments per criterion
   - State the submission's strengths and weaknesses
   - Suggest specific improvements where needed

4. **Final verdict**:
   - State clearly whether the submission qualifies for the bounty
   - Give concrete reasons for the decision
   - A submission only qualifies when the overall score is 7/10 or higher

## Strict scoring rules
- Submission has no code when the criteria require code: at most 2/10
- Submission has no instructions when the criteria require instructions: at most 3/10
- Submission is only a call-to-action or an announcement: at most 1/10
- Submission addresses none of the criteria: at most 0/10
- Submission is unrelated to the bounty topic: 0/10

## Output
Return an evaluation report structured exactly as:

`+"```json"+`
{
  "overallScore": number,
  "qualifiesForBounty": boolean,
  "summary": "string",
  "detailedFeedback": "string"
}
`+"```"+`

## Data
allPostsContent: %s

submitData: %s

criteria: %s
`, allPostsContent, submission, criteriaJSON)
}

// ClassifyPost asks for a one-word legitimacy verdict on a post. Used to
// drop obvious scam content before ranking.
func ClassifyPost(text string) string {
	return fmt.Sprintf(`
Classify this blockchain-related social post: "%s"
RETURN EXACTLY ONE WORD FROM: [LEGITIMATE|SCAM|NEUTRAL]

Classification Guide:
SCAM indicators (if ANY are present, classify as SCAM):
- Unrealistic promises (1000x gains, guaranteed returns, instant wealth)
- Fake giveaways or airdrops requiring deposits/fees
- Requests for private keys, seed phrases, or wallet verification
- Impersonation of foundations or known figures
- Suspicious links to unknown/cloned websites
- Urgency or FOMO tactics ("limited time", "last chance", "ending soon")
- Requests to DM for "exclusive" opportunities
- Unauthorized presales or token offerings
- Requests to connect wallets on unofficial sites
- Copy-paste spam campaigns

LEGITIMATE indicators:
- Posts from verified ecosystem accounts
- Official protocol updates with verifiable links
- Technical discussions about protocol development
- Links to official documentation or GitHub

NEUTRAL content:
- General price discussions and market analysis
- Personal opinions about the ecosystem
- Community questions and support
- Memes and casual content

IMPORTANT: Return only one word - LEGITIMATE or SCAM or NEUTRAL. No other text allowed.
`, text)
}

// BuildGraph converts a post list into a keyword/post graph. The model must
// return only the JSON document described below.
func BuildGraph(postsJSON string) string {
	return fmt.Sprintf(`
**Objective**
- Convert the list of posts into a network consisting of **nodes** (posts, important keywords) and **edges** (relationships between them).
- **Hashtags (#)** and **mentions (@)** should only be added to the keywords list **if there are multiple related posts**.

**Step 1: Process post text**
- Remove **URLs** (e.g., "https://example.com").
- Extract **hashtags (#hashtag)** and **mentions (@username)**.
- Remove special characters **(except for @ and #)**.
- Convert all text to **lowercase**.
- **Skip posts** if they have fewer than 5 words.

**Step 2: Extract keywords & hashtags**
- **Only keep hashtags & mentions if they appear in 2 or more posts**.
- Discard hashtags & mentions if they appear only once.
- Retain **important keywords** such as **"blockchain", "zk-proof", "KYC", "DeFi", "wallet"**.

**Step 3: Build the graph**
- **Nodes:**
  - Each post is a node: { "id": "Movement_1", "type": "post" }
  - Each important keyword **(including popular hashtags/mentions)** is a node:
    { "id": "#defi", "type": "keyword" }

- **Edges:**
  - Connect posts to keywords.
  - Connect posts if they share a hashtag or mention that appears **in at least 2 posts**.

**Input data (JSON)**
Here is the list of posts:
%s

**Desired output data**
- Return JSON with **nodes** and **edges** in the following format:
`+"```json"+`
{
   "nodes": [
        { "id": "Movement_1", "type": "post" },
        { "id": "#defi", "type": "keyword" }
   ],
   "edges": [
        { "source": "Movement_1", "target": "#defi" }
   ]
}
`+"```"+`
- **Only return JSON**, no extra text.
- Maintain standard JSON format for saving to a file and direct usage.
`, postsJSON)
}
