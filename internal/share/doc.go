// Package share stores the final-frame snapshot of each session so visitors
// can retrieve it later. Snapshots go to a local directory or an S3 bucket.
package share
