// @title                       JobHub Identity API
// @version                     1.0
// @description                 Authentication, authorization and employer onboarding for the job board.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

func main() {
	Execute()
}
