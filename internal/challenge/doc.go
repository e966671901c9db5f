// Package challenge issues visual text challenges and verifies answers.
//
// Answers are five characters drawn with crypto/rand from an alphabet that
// omits visually confusable characters. The lower-cased answer is stored in
// an expiring store for two minutes under a random UUID. Verification takes
// the entry atomically, so a challenge is consumed by its first verification
// attempt whether or not the answer matched.
package challenge
