package provider

// extractionPrompt is the fixed instruction set sent with every receipt
// image. It pins down the required fields, the unit normalization rules and
// the sentinel values for illegible data, so both providers return payloads
// the same validator accepts.
const extractionPrompt = `
#Your Task: Receipt Recognition and Data Extraction

You are tasked with extracting structured information from receipts. Receipts will come from various countries, in different languages, and can have different layouts and formats. Your goal is to parse the receipt text and return the data in JSON format with the required fields. Follow the specific instructions below to ensure accurate extraction.

#Required Fields:

1. Receipt Number: Extract the unique receipt number, typically found at the top of the receipt.
2. Store/Business Name: Extract the name of the store, cafe, restaurant, or service provider.
3. Store Address: Extract the address of the store, including city and country if available.
4. Date: Extract the date of the transaction and format it as YYYY-MM-DD HH:MM.
5. Currency: Extract the currency if explicitly mentioned (e.g., EUR, USD). If the currency is not specified, leave it as null.
6. Total Amount: Extract the total amount of the transaction. This is typically located at the end of the receipt, often highlighted in bold or a larger font.
7. Total Discount: Extract the total discount if explicitly mentioned. If not, calculate the total discount by summing up the discounts for individual items.
8. Tax: Extract the total tax amount if it is listed on the receipt.

#Item-Level Details:

For each item on the receipt, extract the following details:

1. Item Name: Extract the full name of each item. Some items may have names split across multiple lines; in this case, concatenate the lines until you encounter a quantity or unit of measurement (e.g., "2kg"), which marks the end of the item name or indicates that the item details have begun.
2. Quantity: Extract the quantity of each item, taking into account both the numerical amount and the unit of measurement.
3. Price: Extract the final price for each item or position on the receipt.
4. Discount: Optionally extract any discount associated with the item, if available.

#Handling Quantity and Units:

1. **Items Sold by Weight:** If the receipt shows a numerical value with a weight unit (such as "kg", "g", or "lb"), extract that number as the weight amount and the corresponding unit as the unit of measurement. Recognize variations in units (e.g., "kgs", "kilograms", "grams", "lbs", "pounds") and normalize these into one of the supported units: kg, g, or lb. If weight information is split over multiple lines, merge the lines to correctly assign the weight amount and unit.
2. **Items Sold by Piece:** If the receipt indicates the number of pieces (often shown as "pcs" or implied by a multiplication format such as "5 * 23.00 = 115.0"), assign the unit of measurement as "pcs". When a line such as "5 * 23.00 = 115.0" appears, interpret it as 5 pieces and look for the corresponding item name in an adjacent line. If the receipt implies that an item is sold by pieces but does not clearly provide a quantity, default to 1.
3. **Ambiguous Cases:** If a receipt does not clearly specify the unit of measurement, extract the weight if it is clear from context; otherwise, mark the unit as "not available" and the amount as "unknown". If ambiguous, prioritize explicitly stated units; if none are provided and the context suggests pieces, default the quantity to 1.

#Special Cases:

1. Multi-line item names: merge the lines to form the complete name. Stop merging when a quantity or unit of measurement is encountered.
2. The total amount is often larger than other numbers or displayed in bold at the bottom of the receipt.
3. If no total discount is listed, sum the discounts for each individual item.
4. The total tax is usually found at the bottom of the receipt.
5. The quantity of an item might appear before, after, or on the same line as the item name. Use spatial and contextual cues to merge the relevant information.

#JSON Output Format:

{
"receipt_number": "string",
"store_name": "string",
"store_address": "string",
"date_time": "string",
"currency": "optional[string]",
"total_amount": "number",
"total_discount": "number",
"total_tax": "number",
"items": [
	{
	"name": "string",
	"quantity": {
		"amount": "number",
		"unit_of_measurement": "enumeration[pcs, kg, lb, g]"
	},
	"price": "number",
	"discount": "optional[number]"
	}
]
}

Return only well-formed json data and nothing more.
`
