package openai

import "fmt"

// Prompt texts for the LLM-backed operations. Kept as code so the binary is
// self-contained; tuning them is a code change like any other.

const queryParserTemplate = `You are a shopping query parser. The current year is %d.
Convert the user's shopping request into a JSON object with exactly these fields:
{
  "search_term": "<concise marketplace search phrase>",
  "filters": {
    "price_max": <number or null>,
    "price_min": <number or null>,
    "min_rating": <number 0-5 or null>,
    "min_reviews": <integer or null>,
    "prime": <true/false or null>,
    "sort_by": <"price-asc-rank"|"price-desc-rank"|"review-rank"|"date-desc-rank"|"relevanceblender" or null>,
    "deliver_by": "<date phrase or empty>"
  },
  "preferences": {
    "features": ["<free-text feature tokens: brands, materials, colors>"]
  }
}
Only include constraints the user actually stated. Respond with the JSON object and nothing else.`

const followUpSuffix = `

The user is refining a previous search. Merge the follow-up with the previous
filters and preferences: keep previous constraints unless the follow-up
changes or removes them, and keep the previous search term unless the
follow-up asks for something different.`

const relevanceValidatorPrompt = `You judge whether a product listing is a DIRECT and PRIMARY match for a search term, considering likely buyer intent.
Answer "yes" if the product IS the searched item, "no" if it is an accessory, replacement part, or add-on for the searched item.
Answer with exactly one word: yes or no.`

const dateParserTemplate = `You convert a free-text date phrase into a calendar date. The current year is %d.
Respond with exactly one token: the date in strict ISO format (YYYY-MM-DD), or the word "none" if the phrase does not name a date.`

const resultsSummarizerPrompt = `You are a shopping assistant summarizing search results for a user.
Write 2-3 sentences synthesizing the list: overall price range, rating quality, and notable common features. Do not enumerate individual products.`

func queryParserPrompt(year int) string {
	return fmt.Sprintf(queryParserTemplate, year)
}

func followUpParserPrompt(year int) string {
	return queryParserPrompt(year) + followUpSuffix
}

func dateParserPrompt(year int) string {
	return fmt.Sprintf(dateParserTemplate, year)
}
