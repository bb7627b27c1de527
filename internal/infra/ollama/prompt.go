package ollama

import "fmt"

// detectionPrompt asks for a rigid labeled-line reply so the verdict parser
// has stable prefixes to latch onto.
func detectionPrompt(objectDescription string) string {
	return fmt.Sprintf(`Please analyze the image and answer the following questions:
1. Is there a %s in the image?
2. If yes, describe its appearance and location in the image in detail.
3. If no, describe what you see in the image instead.
4. On a scale of 1-10, how confident are you in your answer?

Please structure your response as follows:
Answer: [YES/NO]
Description: [Your detailed description]
Confidence: [1-10]`, objectDescription)
}
