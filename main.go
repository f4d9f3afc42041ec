package main

import (
	"os"

	"github.com/khaledhikmat/vs-detect/cmd"

	// Inference backends register themselves with the inference service
	_ "github.com/khaledhikmat/vs-detect/service/inference/onnx"
	_ "github.com/khaledhikmat/vs-detect/service/inference/opencv"
)

func main() {
	os.Exit(cmd.Execute())
}
