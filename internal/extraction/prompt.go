package extraction

import (
	"fmt"
	"strings"
)

const basePrompt = `Extract the following information from the text below and return it as a JSON object:
- name: The full name of the person
- phone: The phone number (if present)
- address: The complete address

Text: %s

Important: Look carefully through the entire text for these details. They might appear anywhere in the document.
The name might be preceded by terms like "Name:", "Customer Name:", etc.
The address might be preceded by "Address:", "Residence:", "Location:", etc.
Phone numbers might be in various formats including +91 prefix or 10 digits.

Return only the JSON object in this format:
{
    "name": "extracted name or null",
    "phone": "extracted phone or null",
    "address": "extracted address or null"
}`

const (
	idHint   = "Note: This is an ID document. Look for the officially stated name and address."
	bankHint = "Note: This is a bank statement. Look for account holder details and the registered address."
)

// BuildPrompt renders the extraction prompt for a document's OCR text.
func BuildPrompt(kind DocumentKind, text string) string {
	prompt := fmt.Sprintf(basePrompt, text)
	if hint := kindHint(kind); hint != "" {
		prompt += "\n" + hint
	}
	return prompt
}

// BuildVisionPrompt renders the instruction sent alongside the document image.
func BuildVisionPrompt(kind DocumentKind) string {
	prompt := strings.Replace(fmt.Sprintf(basePrompt, ""), "Text: \n", "Read the attached document image.\n", 1)
	if hint := kindHint(kind); hint != "" {
		prompt += "\n" + hint
	}
	return prompt
}

func kindHint(kind DocumentKind) string {
	switch kind {
	case KindID:
		return idHint
	case KindBank:
		return bankHint
	default:
		return ""
	}
}
