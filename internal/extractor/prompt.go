package extractor

// BuildInvoicePrompt returns the extraction prompt sent alongside the
// invoice image. The model must answer with a single JSON object holding
// the extracted envelope under "data" and a mirrored confidence map under
// "confidence_scores".
func BuildInvoicePrompt() string {
	return `You are an invoice data extraction system. Extract ALL information from this invoice image and respond with ONLY a single JSON object, no markdown, no commentary.

The JSON object must have exactly two top-level keys: "data" and "confidence_scores".

"data" must follow this structure:
{
  "vendor": {
    "name": "string or null",
    "address": "string or null",
    "phone": "string or null",
    "email": "string or null"
  },
  "order_details": {
    "invoice_number": "string or null",
    "invoice_date": "string or null",
    "due_date": "string or null",
    "po_number": "string or null"
  },
  "items": [
    {
      "description": "string",
      "quantity": number,
      "unit_price": number or string,
      "amount": number or string
    }
  ],
  "payment_details": {
    "subtotal": number or string or null,
    "tax": number or string or null,
    "total": number or string or null,
    "currency": "ISO 4217 code, e.g. USD"
  }
}

"confidence_scores" must mirror the structure of "data", replacing each leaf value with your confidence in that value as a number between 0 and 1. For items, provide an array of objects with the same keys.

Rules:
- Transcribe values exactly as printed. Do not invent values; use null for anything not present or not legible.
- Dates as printed on the invoice, do not reformat.
- Monetary values may keep currency symbols and thousands separators as printed.
- Every line item on the invoice must appear in "items", in the order printed.`
}
