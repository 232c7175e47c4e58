package main

import (
	"fmt"
	"os"
	"strings"
)

const maxInputs = 6

func generateDeclare(n int) string {
	var sb strings.Builder

	typeParams := []string{"T any"}
	for i := 1; i <= n; i++ {
		typeParams = append(typeParams, fmt.Sprintf("A%d any", i))
	}

	inputParams := []string{}
	for i := 1; i <= n; i++ {
		inputParams = append(inputParams, fmt.Sprintf("p%d Param[A%d]", i, i))
	}

	fnParams := []string{"*ComputeCtx"}
	for i := 1; i <= n; i++ {
		fnParams = append(fnParams, fmt.Sprintf("A%d", i))
	}

	specs := []string{}
	for i := 1; i <= n; i++ {
		specs = append(specs, fmt.Sprintf("p%d.spec", i))
	}

	args := []string{"ctx"}
	for i := 1; i <= n; i++ {
		args = append(args, fmt.Sprintf("p%d.decode(args[%d])", i, i-1))
	}

	sb.WriteString(fmt.Sprintf("// DeclareComputed%d declares a computed slot over %d input(s).\n", n, n))
	sb.WriteString(fmt.Sprintf("func DeclareComputed%d[%s](\n", n, strings.Join(typeParams, ", ")))
	sb.WriteString("\tc *Class,\n")
	sb.WriteString("\tname string,\n")
	for _, p := range inputParams {
		sb.WriteString(fmt.Sprintf("\t%s,\n", p))
	}
	sb.WriteString(fmt.Sprintf("\tfn func(%s) (T, error),\n", strings.Join(fnParams, ", ")))
	sb.WriteString("\topts ...SlotOption,\n")
	sb.WriteString(") Computed[T] {\n")
	sb.WriteString(fmt.Sprintf("\tspecs := []paramSpec{%s}\n", strings.Join(specs, ", ")))
	sb.WriteString("\treturn declareComputed(c, name, specs, func(ctx *ComputeCtx, args []any) (T, error) {\n")
	sb.WriteString(fmt.Sprintf("\t\treturn fn(%s)\n", strings.Join(args, ", ")))
	sb.WriteString("\t}, opts)\n")
	sb.WriteString("}\n\n")

	return sb.String()
}

func main() {
	var output strings.Builder

	for i := 0; i <= maxInputs; i++ {
		output.WriteString(generateDeclare(i))
	}

	fmt.Print(output.String())

	if len(os.Args) > 1 && os.Args[1] == "-w" {
		file, err := os.OpenFile("computed_generated.go", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			panic(err)
		}
		defer file.Close()

		file.WriteString("// Code generated by codegen; DO NOT EDIT.\n\n")
		file.WriteString("package lazy\n\n")
		file.WriteString("//go:generate go run ./codegen -w\n\n")
		file.WriteString(strings.TrimSuffix(output.String(), "\n"))
		fmt.Println("Generated computed_generated.go")
	}
}
