// Package main provides the crucible CLI: training runs for the reference
// models and dataset inspection.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

const version = "v0.1.0"

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "version":
		fmt.Printf("crucible %s\n", version)
	case "train-cifar10":
		err = runCIFAR10(os.Args[2:])
	case "train-fashion":
		err = runFashion(os.Args[2:])
	case "pedestrians":
		err = runPedestrians(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		logrus.WithError(err).Fatal("run failed")
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "crucible - supervised training harness")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  train-cifar10   Train LeNet-5 on the CIFAR-10 binary batches")
	fmt.Fprintln(os.Stderr, "  train-fashion   Train the fully connected classifier on Fashion-MNIST")
	fmt.Fprintln(os.Stderr, "  pedestrians     Inspect a paired image/instance-mask dataset")
	fmt.Fprintln(os.Stderr, "  version         Show version")
}
