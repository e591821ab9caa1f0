package main

//go:generate go run ../fnadapter gen --signature hash.yaml --out main.go
