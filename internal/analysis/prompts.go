package analysis

const extractPrompt = `Analyze the consultation and extract the following five pieces of information as JSON.

1. top_topics: the most plausible consultation categories from the list below, best match first, at most 3.
2. customer_traits: key behavioral keywords for the customer (e.g. urgent, angry, logical).
3. customer_info: the customer's name and phone number (or identifier) if mentioned in the conversation. Use null when absent.
4. summary: a one-line summary of the consultation.
5. recommended_ref_ids: IDs from the reference catalog below that would help with this consultation. Use [] when none apply.

If audio is provided, listen to it and analyze the content.

[Available categories]
%s

[Reference catalog]
%s

[Output format - JSON only]
{
    "top_topics": ["refund", "general"],
    "customer_traits": "...",
    "customer_info": {
        "name": "홍길동" or null,
        "phone": "010-XXXX-XXXX" or null
    },
    "summary": "...",
    "recommended_ref_ids": [123, 456]
}`

const coachingPrompt = `You are an AI sales supervisor.
Evaluate the consultation and coach the agent precisely, based on the customer's past history, the mandatory guidelines, and the reference documents.

[Customer profile (history)]
%s

[Mandatory guidelines]
%s

%s

---------------------------------------------------
[Request]
Write a JSON response that concretely corrects the agent's phrasing in this consultation.
If reference documents are provided, you must use them to fact-check: when the agent gave incorrect information, cite the relevant clause by document title and state the correct information.

The 'feedback' field must contain, in Markdown:
1. What went well
2. What to improve, with before/after rewrites - citing the reference documents where applicable
3. Overall assessment

If the input is audio, also return a full transcript in the 'transcript' field; otherwise leave it empty.

[Output format - JSON only]
{
    "score": integer 0-100,
    "metrics": {
        "compliance": 0-100,
        "empathy": 0-100,
        "clarity": 0-100
    },
    "feedback": "...",
    "transcript": "..."
}`
