package strategy

const selectionPrompt = `History:
{{.History}}

Agents:
{{join ", " .Agents}}

Agent Selection Criteria:
{{.Criteria}}

Based on the above, return a JSON object with two properties:
- "rationale": An explanation of your decision.
- "nextAgent": The name of the agent to respond next.

Example Output:
{
    "rationale": "The last message was from User, so according to the rules, the next agent should be CopyWriter.",
    "nextAgent": "CopyWriter"
}

Return only the JSON response without any additional commentary.
`

const terminationPrompt = `You are a programmer. You have been provided with a JSON array of messages.

**Instructions**:
1. Evaluate the following statement based on the provided messages and description:
"{{.Condition}}"

2. Return your answer as a JSON object with two properties:
   - "reason": A string explaining why the statement is considered true or false.
   - "shouldTerminate": A boolean value (true if the termination condition is met, false otherwise).

These are the messages you need to evaluate:
--------------------------------------------------
{{.History}}
--------------------------------------------------

Example Output:
{
    "reason": "The provided information does not include any reference to an ArtDirector approving the copy, so the statement is false.",
    "shouldTerminate": false
}

Return only the JSON response without any additional commentary.
`
