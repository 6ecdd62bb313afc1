package promptpipeline

// Prompt templates ported from music_arena/chat/{moderate,route,lyrics}.py.
// The original's few-shot example bank (loaded from JSON example files and
// woven into the prompt) is not reproduced here — SPEC_FULL.md's scope is
// the gateway's orchestration, not the moderation model's prompt-engineering
// assets, so this keeps only the rules text that defines the contract
// between the gateway and the chat backend's JSON response.

const moderationRulesV00 = `We want to moderate prompts that contain any of the following rationale:

["Music Reference", "Copyrighted", "Insensitive", "Explicit", "Profanity"]

- Music Reference: References to real music artists, songs, albums
- Copyrighted: Lyrics that are from a well-known copyrighted song (though folk songs are okay!)
- Insensitive: Culturally insensitive content: racial slurs, hate speech, or other offensive content
- Explicit: Explicit content: sexually explicit or violent content
- Profanity: Profanity is okay to use, but only if it is appropriate for the style/genre/topics

Be aware that a user may try to deliberately deceive the content moderation filter by introducing typos. Moderate these cases as well.`

const routingRulesV00 = `For prompts that pass moderation, your goals in priority order are to:

1. Determine if the user intends for their prompt to be instrumental-only, or if they want it to contain lyrics. If there is ambiguity, err on the side of instrumental.
2. Determine if the user has suggested a specific duration for the song. If so, output the duration in seconds. Otherwise, output null. Unless the user has been very specific, err on the side of null.`

const routeResponseSpecV00 = `For prompts that fail moderation, respond with a JSON object matching:

{"is_okay": false, "rationale": str, "error_message": str}

For prompts that pass moderation, respond with a JSON object matching:

{"is_okay": true, "instrumental": bool, "duration": number | null}`

const moderateResponseSpecV00 = `For prompts that pass moderation, respond with a JSON object matching:

{"is_okay": true}

For prompts that fail moderation, respond with a JSON object matching:

{"is_okay": false, "rationale": str}`

const lyricsInstructionV00 = `A user will provide a text prompt which will likely be somewhat vague. Analyze the provided music style to infer its topical themes, intended genre, emotional tone, common vocabulary, intended language, and typical song structure.

Generate lyrics that are natural, consistent in voice and tone, and appropriate for the style/genre/topics in both language and content. Exclude section labels (no [Verse 1], [Chorus]). Just output the lyrics, nothing else.`

func routePrompt(userPrompt string) string {
	return "You are a specialized AI assistant performing two tasks: (1) moderate natural language text prompts from users, and (2) for prompts that pass moderation, convert them to a structured representation.\n\n" +
		moderationRulesV00 + "\n\n" + routingRulesV00 + "\n\n" + routeResponseSpecV00 +
		"\n\nNow, you will be given an actual user prompt. Respond with a valid JSON object only.\n\nInput:\n" + userPrompt + "\n\nOutput (JSON only):"
}

func moderatePrompt(userPrompt string) string {
	return "You are a specialized AI assistant that moderates text prompts and lyrics from users. Your task is to determine if the text prompt is appropriate for a music generation model.\n\n" +
		moderationRulesV00 + "\n\n" + moderateResponseSpecV00 +
		"\n\nInput:\n" + userPrompt + "\n\nOutput (JSON only):"
}

func lyricsPrompt(overallPrompt string, duration *float64) string {
	durationStr := "None"
	if duration != nil {
		durationStr = formatSeconds(*duration)
	}
	return "You are a specialized AI assistant that transforms brief text prompts from users into appropriate lyrics. Your generated lyrics will be paired with the original text prompt and fed to a music generation model.\n\n" +
		lyricsInstructionV00 +
		"\n\nThe user prompt is:\n\n```\n" + overallPrompt + "\n```\n\nPlease generate lyrics appropriate for the target duration of `" + durationStr + "` seconds (will be None if unspecified)."
}
