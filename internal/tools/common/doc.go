// Package common holds helpers shared by the tool packages: the instrumented
// handler wrapper, athlete ID resolution and date argument handling.
package common
