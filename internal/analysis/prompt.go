package analysis

import (
	"fmt"
	"strings"
)

const promptTemplate = `You are a product analysis API. You will receive a product barcode. Your only job is to return a single, valid JSON object with the requested information. Do not add any commentary, explanations, or markdown formatting like ` + "```json" + `.

Analyze the product for this barcode: '%s'

Available product categories are: [%s]

**Instructions:**
1.  **Use Google Search** to find the product's name, brand, and category.
2.  **For the 'category' field, you MUST choose the most appropriate category from the provided list of available categories.**
3.  **Analyze the product** and fill the following fields:
    *   ` + "`isFoodProduct`" + `: A boolean value.
    *   ` + "`ingredients`" + `: A string listing the likely primary ingredients.
    *   ` + "`ecologicalScore`" + `: A number from 0 to 100.
    *   ` + "`ecologicalJustification`" + `: A brief string explaining the score.
    *   ` + "`nutritionalScore`" + `: A number from 0 to 100 if it's a food product, otherwise ` + "`null`" + `.
    *   ` + "`nutritionalJustification`" + `: A brief string if it's a food product, otherwise ` + "`null`" + `.
4.  **Strictly adhere to the JSON output format.** Do not include a trailing comma at the end of the object.

**JSON Output Format:**
{
  "productName": "string",
  "brand": "string | null",
  "ingredients": "string",
  "isFoodProduct": boolean,
  "category": "string",
  "ecologicalScore": number,
  "ecologicalJustification": "string",
  "nutritionalScore": "number | null",
  "nutritionalJustification": "string | null"
}

**CRITICAL:** If you cannot find the product or perform the analysis, you MUST return this exact JSON object and nothing else:
{
  "productName": "Unknown Product",
  "brand": null,
  "ingredients": "",
  "isFoodProduct": false,
  "category": "Unknown",
  "ecologicalScore": 0,
  "ecologicalJustification": "The product could not be identified from the barcode using Google Search.",
  "nutritionalScore": null,
  "nutritionalJustification": null
}
`

// buildPrompt renders the analysis prompt for one barcode.
func buildPrompt(barcode string, categories []string) string {
	quoted := make([]string, len(categories))
	for i, c := range categories {
		quoted[i] = "'" + c + "'"
	}
	return fmt.Sprintf(promptTemplate, barcode, strings.Join(quoted, ", "))
}
